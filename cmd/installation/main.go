package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lego-house/config"
	"lego-house/internal/application"
	"lego-house/internal/domain"
	"lego-house/internal/infra"
	"lego-house/internal/infra/audio"
	"lego-house/internal/infra/display"
	"lego-house/internal/infra/homeassistant"
	"lego-house/internal/infra/house"
	"lego-house/internal/infra/influx"
	"lego-house/internal/infra/mqtt"
	"lego-house/internal/infra/outbox"
	"lego-house/internal/infra/pushover"
	"lego-house/internal/infra/remote"
	"lego-house/internal/infra/scene"
	"lego-house/internal/infra/tracker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("installation stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	initialMode, err := domain.ParseMode(cfg.Devices.InitialMode)
	if err != nil {
		return fmt.Errorf("initial mode: %w", err)
	}

	var broker *mqtt.Client
	if needsBroker(cfg) {
		broker, err = mqtt.Connect(cfg.MQTT, logger)
		if err != nil {
			return fmt.Errorf("connecting to broker: %w", err)
		}
		defer broker.Close()
	}

	source, err := createTracker(cfg.Tracker, broker, logger)
	if err != nil {
		return fmt.Errorf("starting tracker: %w", err)
	}

	var speaker *audio.Speaker
	if cfg.Devices.Audio == "speaker" {
		speaker = audio.NewSpeaker(cfg.Devices.SampleRate, cfg.VolumeRange(), logger)
		if err := speaker.Start(ctx); err != nil {
			return fmt.Errorf("starting speaker: %w", err)
		}
		defer speaker.Stop()
	}

	lights, err := createTransport(cfg, cfg.Devices.Lights, broker, speaker, logger)
	if err != nil {
		return fmt.Errorf("lights backend: %w", err)
	}
	sound, err := createTransport(cfg, cfg.Devices.Audio, broker, speaker, logger)
	if err != nil {
		return fmt.Errorf("audio backend: %w", err)
	}

	router := &application.Router{
		Lights: lights,
		Audio:  sound,
		// these audio backends start and stop the music with the mode
		AudioFollowsMode: cfg.Devices.Audio != cfg.Devices.Lights &&
			(cfg.Devices.Audio == "speaker" || cfg.Devices.Audio == "homeassistant"),
	}

	queue := outbox.New(router, cfg.Outbox.Size, retryConfig(cfg.Outbox), logger)
	queue.Start(ctx)
	defer queue.Close()

	var transport application.Transport = queue
	recorder, err := influx.Connect(cfg.InfluxDB, queue, logger)
	switch {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		logger.Warn("influxdb unavailable, commands will not be recorded", "error", err)
	default:
		defer recorder.Close()
		transport = recorder
	}

	state := application.NewInstallationState(initialMode, cfg.InitialVolume())
	controller := application.NewDeviceController(state, transport, cfg.VolumeRange(), logger)
	controller.ApplyCurrent(ctx)

	store, err := house.Open(ctx, cfg.House.Database)
	if err != nil {
		return fmt.Errorf("opening house store: %w", err)
	}
	defer store.Close()

	width, height := cfg.Canvas()
	locator := house.NewLocator(store, domain.HouseLocation{X: float64(width) / 2, Y: float64(height) / 2}, logger)

	plate := scene.NewPlate(width, height, locator, state)
	if cfg.Display.Background != "" {
		if err := plate.LoadBackground(cfg.Display.Background); err != nil {
			return err
		}
	}

	var notifier application.Notifier = &application.NoopNotifier{}
	if cfg.Pushover.Enabled {
		notifier = pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey)
	}

	loop := application.NewFrameLoop(
		state,
		application.NewTrackingAdapter(source),
		application.NewOverlayRenderer(application.DefaultRenderOptions()),
		application.NewInputDispatcher(state, controller, logger),
		locator,
		plate,
		display.NewCanvas(width, height),
		notifier,
		logger,
	)

	if cfg.Remote.Enabled {
		opts := []remote.Option{remote.WithKeysPerMinute(cfg.Remote.KeysPerMinute)}
		if cfg.Remote.TrustProxy {
			opts = append(opts, remote.WithTrustedProxy())
		}
		server := remote.NewServer(cfg.Remote.Addr, cfg.Remote.AuthToken, state, logger, opts...)
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("starting remote: %w", err)
		}
		defer server.Stop()
		loop.UseRemoteKeys(server.Keys())
	}

	logger.Info("starting installation",
		"mode", initialMode,
		"volume", cfg.InitialVolume(),
		"fullscreen", cfg.Display.Fullscreen,
		"headless", cfg.Display.Headless,
		"tracker", cfg.Tracker.Source,
		"lights", cfg.Devices.Lights,
		"audio", cfg.Devices.Audio,
	)
	notifier.Notify(ctx, "installation started") //nolint:errcheck

	if cfg.Display.Headless {
		err = display.RunHeadless(ctx, loop, display.HeadlessConfig{TPS: cfg.Display.TPS})
	} else {
		err = display.RunWindow(ctx, loop, display.WindowConfig{
			Title:      "Lego House",
			Width:      width,
			Height:     height,
			Fullscreen: cfg.Display.Fullscreen,
			TPS:        cfg.Display.TPS,
		})
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	notifier.Notify(stopCtx, "installation stopped") //nolint:errcheck
	return err
}

func needsBroker(cfg *config.Config) bool {
	return cfg.Tracker.Source == "mqtt" || cfg.Devices.Lights == "mqtt" || cfg.Devices.Audio == "mqtt"
}

func createTracker(cfg config.TrackerConfig, broker *mqtt.Client, logger *slog.Logger) (application.Tracker, error) {
	switch cfg.Source {
	case "mqtt":
		// validated by config.Validate
		staleAfter, _ := time.ParseDuration(cfg.StaleAfter)
		logger.Debug("tracking over mqtt", "stale_after", staleAfter)
		return mqtt.NewTracker(broker, broker.Topics(), mqtt.WithStaleAfter(staleAfter))
	case "replay":
		return tracker.Open(cfg.ReplayFile)
	default:
		return nil, fmt.Errorf("unknown tracker source %q", cfg.Source)
	}
}

func createTransport(
	cfg *config.Config,
	backend string,
	broker *mqtt.Client,
	speaker *audio.Speaker,
	logger *slog.Logger,
) (application.Transport, error) {
	switch backend {
	case "log":
		return &application.LogTransport{Logger: logger}, nil
	case "mqtt":
		return mqtt.NewTransport(broker, broker.Topics()), nil
	case "homeassistant":
		ha := cfg.HomeAssistant
		client := homeassistant.NewClient(ha.URL, ha.Token, homeassistant.Entities{
			FirstFloor:  ha.FirstFloor,
			SecondFloor: ha.SecondFloor,
			Speaker:     ha.Speaker,
		}, cfg.VolumeRange())
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx); err != nil {
			return nil, fmt.Errorf("home assistant: %w", err)
		}
		return client, nil
	case "speaker":
		if speaker == nil {
			return nil, errors.New("speaker backend is only available for audio")
		}
		return speaker, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func retryConfig(cfg config.OutboxConfig) infra.RetryConfig {
	retry := infra.DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxAttempts
	// validated by config.Validate
	retry.InitialDelay, _ = time.ParseDuration(cfg.InitialDelay)
	retry.MaxDelay, _ = time.ParseDuration(cfg.MaxDelay)
	return retry
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
