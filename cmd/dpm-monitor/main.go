// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Command dpm-monitor polls a DPM-8600 series bench supply, logs every
// sample to CSV (and optionally MQTT) and trims the current limit to hold
// a power target. The target is adjustable at runtime: type '+' or '-'
// (followed by enter) to step it by 5 W within [5, 300] W.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/schuellerf/dpm-monitor/dpm8600"
	"github.com/schuellerf/dpm-monitor/internal/config"
	"github.com/schuellerf/dpm-monitor/monitor"
	"github.com/schuellerf/dpm-monitor/sink"
)

var (
	Version = "0.1.0"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	iface := flag.String("interface", config.DefaultInterface(), "serial device")
	baud := flag.Int("baud", 9600, "baud rate")
	addressCode := flag.Int("address-code", 1, "address code of the device")
	delay := flag.Duration("delay", time.Second, "polling interval")
	output := flag.String("output", "power_log.csv", "CSV output file, appended if existing")
	comment := flag.String("comment", "", "comment added to the data, also overrides the MQTT topic")
	maxWatt := flag.Int("max-watt", 50, "limit output current to this power (watts)")
	voltageLimit := flag.Float64("voltage-limit", 14.5, "output voltage limit (volts)")
	mqttServer := flag.String("mqtt-server", "", "MQTT broker address, e.g. tcp://host:1883")
	verbose := flag.Bool("verbose", false, "debug output")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dpm-monitor v%s\n", Version)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "interface":
			cfg.Device.Interface = *iface
		case "baud":
			cfg.Device.BaudRate = *baud
		case "address-code":
			cfg.Device.AddressCode = *addressCode
		case "delay":
			cfg.Monitor.Delay = config.Duration(*delay)
		case "output":
			cfg.Output.CSVPath = *output
		case "comment":
			cfg.Monitor.Comment = *comment
		case "max-watt":
			cfg.Monitor.MaxWatt = *maxWatt
		case "voltage-limit":
			cfg.Monitor.VoltageLimit = *voltageLimit
		case "mqtt-server":
			cfg.Output.MQTTServer = *mqttServer
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	log := setupLogger(cfg.Verbose)
	log.Infof("dpm-monitor v%s starting on %s", Version, cfg.Device.Interface)

	devCfg := dpm8600.DefaultConfig()
	devCfg.Serial.Address = cfg.Device.Interface
	devCfg.Serial.BaudRate = cfg.Device.BaudRate
	devCfg.Serial.Timeout = cfg.Device.ReadTimeout.Std()
	devCfg.AddressCode = cfg.Device.AddressCode

	client, err := dpm8600.Connect(dpm8600.NewOption().SetConfig(devCfg).SetLogger(log))
	if err != nil {
		log.Fatalf("opening device: %v", err)
	}
	defer client.Close()

	emitters := []monitor.Emitter{sink.NewConsole(os.Stdout)}

	csvWriter, err := sink.NewCSVWriter(cfg.Output.CSVPath)
	if err != nil {
		log.Fatalf("opening CSV log: %v", err)
	}
	emitters = append(emitters, csvWriter)

	if cfg.Output.MQTTServer != "" {
		log.Infof("connecting to MQTT broker %s", cfg.Output.MQTTServer)
		publisher, err := sink.NewMQTTPublisher(cfg.Output.MQTTServer, cfg.Monitor.Comment)
		if err != nil {
			log.Fatalf("connecting MQTT: %v", err)
		}
		emitters = append(emitters, publisher)
	}
	defer func() {
		for _, e := range emitters {
			if err := e.Close(); err != nil {
				log.Warnf("closing emitter: %v", err)
			}
		}
	}()

	target := monitor.NewTargetWatts(cfg.Monitor.MaxWatt)

	mon, err := monitor.New(client, monitor.Config{
		Delay:        cfg.Monitor.Delay.Std(),
		VoltageLimit: cfg.Monitor.VoltageLimit,
		Comment:      cfg.Monitor.Comment,
	}, target, log, emitters...)
	if err != nil {
		log.Fatalf("invalid monitor config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchTargetInput(ctx, os.Stdin, target, log)

	log.Info("running, use '+' or '-' (then enter) to change the watt target, Ctrl+C to exit")
	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("monitor stopped: %v", err)
	}
	log.Infof("session done: %.3f Wh (%.3f Wh gross) over %d samples",
		mon.Session().EnergySum(), mon.Session().EnergyGross(), mon.Session().Samples())
}

// watchTargetInput adjusts the shared watt target from stdin lines.
func watchTargetInput(ctx context.Context, in *os.File, target *monitor.TargetWatts, log *logrus.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch scanner.Text() {
		case "+", "u", "up":
			log.Infof("watt target now %d W", target.Raise())
		case "-", "d", "down":
			log.Infof("watt target now %d W", target.Lower())
		}
	}
}

func setupLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}
