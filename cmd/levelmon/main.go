package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/speedwagon-io/levelmon/internal/api"
	"github.com/speedwagon-io/levelmon/internal/buffer"
	"github.com/speedwagon-io/levelmon/internal/config"
	"github.com/speedwagon-io/levelmon/internal/health"
	"github.com/speedwagon-io/levelmon/internal/indicator"
	"github.com/speedwagon-io/levelmon/internal/lib/logger/sl"
	"github.com/speedwagon-io/levelmon/internal/metrics"
	"github.com/speedwagon-io/levelmon/internal/model"
	"github.com/speedwagon-io/levelmon/internal/monitor"
	"github.com/speedwagon-io/levelmon/internal/sender"
	"github.com/speedwagon-io/levelmon/internal/sonar"
	"github.com/speedwagon-io/levelmon/internal/state"
	"github.com/speedwagon-io/levelmon/internal/threshold"
	"github.com/speedwagon-io/levelmon/internal/uplink"
)

const (
	shutdownTimeout = 10 * time.Second
	bufferSoftLimit = 10000
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	dryRun := flag.Bool("dry-run", false, "log uplink readings instead of sending")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format)

	log.Info("starting levelmon",
		slog.String("env", cfg.Env),
		slog.String("device_id", cfg.Device.ID),
		slog.Bool("dry_run", *dryRun),
	)

	thresholds, err := threshold.NewStoreWith(model.ThresholdSet{
		Low:  cfg.Thresholds.Low,
		Mid:  cfg.Thresholds.Mid,
		High: cfg.Thresholds.High,
	})
	if err != nil {
		log.Error("invalid thresholds in config", sl.Err(err))
		os.Exit(1)
	}
	st := state.New(thresholds)

	var driver sonar.Driver
	switch cfg.Sonar.Driver {
	case "iio":
		driver = sonar.NewIIODriver(cfg.Sonar.Path, cfg.Sonar.Scale)
	case "remote":
		remote := sonar.NewRemoteDriver(log, cfg.Sonar.URL, cfg.Sonar.Field, cfg.Sonar.Timeout)
		defer remote.Close()
		driver = remote
	default:
		driver = sonar.NewSimDriver(cfg.Sonar.SimDepthCM, time.Now().UnixNano())
	}

	sampler := sonar.NewSampler(log, driver, sonar.Options{
		Settle:        cfg.Sonar.Settle,
		Timeout:       cfg.Sonar.Timeout,
		MaxDistanceCM: cfg.Sonar.MaxDistanceCM,
	})

	var outputs indicator.Outputs
	switch cfg.Indicators.Driver {
	case "gpio":
		outputs, err = indicator.NewGPIO(cfg.Indicators.GPIORoot, indicator.Pins{
			OK:     cfg.Indicators.OKPin,
			Warn:   cfg.Indicators.WarnPin,
			Danger: cfg.Indicators.DangerPin,
		})
		if err != nil {
			log.Error("failed to set up indicator pins", sl.Err(err))
			os.Exit(1)
		}
	default:
		outputs = indicator.NewLogOutputs(log)
	}

	m := metrics.New(cfg.Device.ID)

	// LogSender for dry-run mode, configured transport otherwise
	var dataSender sender.Sender
	var buf buffer.Buffer
	if cfg.Uplink.Enabled {
		switch {
		case *dryRun:
			dataSender = sender.NewLogSender(log)
			log.Info("dry-run mode: readings will be logged instead of sent")
		case cfg.Uplink.Driver == "mqtt":
			client, err := sender.ConnectMQTT(&cfg.Uplink, cfg.Device.ID)
			if err != nil {
				log.Error("failed to connect to mqtt broker", sl.Err(err))
				os.Exit(1)
			}
			dataSender = sender.NewMQTTSender(log, client, cfg.Uplink.Topic, cfg.Uplink.Timeout)
		default:
			dataSender = sender.NewHTTPSender(log, &cfg.Uplink)
		}

		if cfg.Buffer.Enabled && !*dryRun {
			sqliteBuf, err := buffer.NewSQLiteBuffer(log, cfg.Buffer.Path)
			if err != nil {
				log.Error("failed to create buffer", sl.Err(err))
				os.Exit(1)
			}
			buf = sqliteBuf
			log.Info("buffer enabled", slog.String("path", cfg.Buffer.Path))
		}
	}

	healthServer := health.NewServer(log, cfg.Health.Address, m.Handler())
	healthServer.AddChecker(health.NewSonarHealthChecker(
		sampler.ConsecutiveMisses,
		cfg.Health.DegradedMisses,
		cfg.Health.UnhealthyMisses,
	))
	if dataSender != nil {
		healthServer.AddChecker(health.NewSenderHealthChecker(dataSender.Health))
	}
	if buf != nil {
		healthServer.AddChecker(health.NewBufferHealthChecker(buf.Count, bufferSoftLimit))
	}

	if err := healthServer.Start(); err != nil {
		log.Error("failed to start health server", sl.Err(err))
		os.Exit(1)
	}

	apiServer := api.NewServer(log, cfg.HTTP.Address, api.NewRouter(log, st, m)).
		WithTimeouts(cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)
	if err := apiServer.Start(); err != nil {
		log.Error("failed to start api server", sl.Err(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	var up *uplink.Manager
	if dataSender != nil {
		up = uplink.NewManager(log, st.Snapshot, dataSender, buf, m, uplink.Options{
			DeviceID:   cfg.Device.ID,
			DeviceName: cfg.Device.Name,
			Interval:   cfg.Uplink.Interval,
			MaxAge:     cfg.Buffer.MaxAge,
		})
		go up.Start(ctx)
	}

	manager := monitor.NewManager(log, st, sampler, outputs, indicator.NewLogDisplay(log), m, monitor.Options{
		Interval:     cfg.Cycle.Interval,
		DisplayWidth: cfg.Display.Width,
	})

	healthServer.MarkReady()

	manager.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	manager.Stop()
	if up != nil {
		up.Stop()
	}

	if err := outputs.Close(); err != nil {
		log.Error("failed to release indicators", sl.Err(err))
	}

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop api server", sl.Err(err))
	}

	if err := healthServer.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop health server", sl.Err(err))
	}

	if buf != nil {
		if err := buf.Close(); err != nil {
			log.Error("failed to close buffer", sl.Err(err))
		}
	}

	log.Info("levelmon stopped")
}
