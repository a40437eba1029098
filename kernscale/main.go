package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/itohio/gokern/pkg/acquire"
	"github.com/itohio/gokern/pkg/config"
	"github.com/itohio/gokern/pkg/kern"
	"github.com/itohio/gokern/pkg/logger"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyUSB0)")
		baudFlag           = flag.Int("b", 0, "Baud rate override (2400, 4800, 9600 or 19200)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated balance instead of serial port")
		listFlag           = flag.Bool("list", false, "List serial ports and supported baud rates, then exit")
		onceFlag           = flag.Bool("once", false, "Print a single reading and exit")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of readings to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	if *listFlag {
		if err := listPorts(); err != nil {
			log.Fatalf("Failed to list ports: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *baudFlag != 0 {
		cfg.Serial.BaudRate = *baudFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Acquisition.AverageSamples = *averageSamplesFlag
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logg.Sync()

	baudRate, err := kern.ParseBaudRate(cfg.Serial.BaudRate)
	if err != nil {
		logg.Fatal("invalid configuration", zap.Error(err))
	}

	opts := []kern.Option{kern.WithLogger(logg)}
	if *mockFlag {
		opts = append(opts, kern.WithOpener(kern.NewSimulator(&cfg.Mock).Open))
		logg.Info("using simulated balance")
	}
	balance := kern.New(cfg, opts...)

	ok, msg := balance.Connect(cfg.Serial.Port, baudRate)
	fmt.Println(msg)
	if !ok {
		os.Exit(1)
	}
	defer balance.Disconnect()

	poller := acquire.NewPoller(balance, cfg.Acquisition.Interval, cfg.Acquisition.BufferSize, logg)

	if *onceFlag {
		r := <-poller.Trigger()
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "reading failed: %v\n", r.Err)
			balance.Disconnect()
			os.Exit(1)
		}
		fmt.Printf("%.3f\n", r.Value)
		return
	}

	run(poller, cfg, logg)
}

// run prints readings until SIGINT or SIGTERM.
func run(poller *acquire.Poller, cfg *config.Config, logg *zap.Logger) {
	readings := poller.Readings()
	if cfg.Acquisition.AverageSamples > 0 {
		readings = acquire.NewAveraging(cfg.Acquisition.AverageSamples, cfg.Acquisition.BufferSize)(readings)
	}

	if err := poller.Start(); err != nil {
		logg.Error("failed to start acquisition", zap.Error(err))
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s := <-sig
		logg.Info("stopping acquisition", zap.String("signal", s.String()))
		poller.Stop()
	}()

	for r := range readings {
		if r.Err != nil {
			fmt.Printf("%s\t--\t%v\n", r.Timestamp.Format("15:04:05.000"), r.Err)
			continue
		}
		fmt.Printf("%s\t%.3f\n", r.Timestamp.Format("15:04:05.000"), r.Value)
	}
}

func listPorts() error {
	ports, err := kern.Ports()
	if err != nil {
		return err
	}

	if len(ports) == 0 {
		fmt.Println("No serial ports found")
	}
	for _, port := range ports {
		if port.Description != "" && port.Description != port.Name {
			fmt.Printf("%s (%s)\n", port.Name, port.Description)
		} else {
			fmt.Println(port.Name)
		}
	}

	fmt.Printf("Supported baud rates: %v (default %d)\n", kern.SupportedBaudRates, kern.DefaultBaudRate)
	return nil
}
