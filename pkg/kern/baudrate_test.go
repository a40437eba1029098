package kern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaudRate_Valid(t *testing.T) {
	for _, rate := range SupportedBaudRates {
		assert.True(t, rate.Valid(), "%d should be valid", rate)
	}

	assert.False(t, BaudRate(0).Valid())
	assert.False(t, BaudRate(1200).Valid())
	assert.False(t, BaudRate(115200).Valid())
}

func TestDefaultBaudRate(t *testing.T) {
	assert.Equal(t, Baud9600, DefaultBaudRate)
	assert.Contains(t, SupportedBaudRates, DefaultBaudRate)
	assert.Equal(t, []BaudRate{2400, 4800, 9600, 19200}, SupportedBaudRates)
}

func TestParseBaudRate(t *testing.T) {
	b, err := ParseBaudRate(19200)
	require.NoError(t, err)
	assert.Equal(t, Baud19200, b)
	assert.Equal(t, 19200, b.Int())
	assert.Equal(t, "19200", b.String())

	_, err = ParseBaudRate(38400)
	assert.ErrorIs(t, err, ErrUnsupportedBaudRate)
}
