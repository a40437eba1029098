package acquire

// NewAveraging creates a stage that replaces each good reading with the mean
// of the last windowSize good readings. Failed readings pass through
// untouched and do not enter the window. The output closes when the input does.
func NewAveraging(windowSize int, bufSize int) Stage {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}

	return func(in <-chan Reading) <-chan Reading {
		out := make(chan Reading, bufSize)

		go func() {
			defer close(out)

			window := make([]float64, 0, windowSize+1)
			for r := range in {
				if r.Err != nil {
					out <- r
					continue
				}

				window = append(window, r.Value)
				if len(window) > windowSize {
					window = window[1:] // Remove oldest
				}

				out <- Reading{
					Timestamp: r.Timestamp,
					Value:     mean(window),
				}
			}
		}()

		return out
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
