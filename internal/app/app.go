// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"

	"vizkit/internal/adapter/eventbus"
	"vizkit/internal/adapter/spectrum"
	ui "vizkit/internal/adapter/ui/fyne"
	"vizkit/internal/adapter/ui/fyne/widgets"
	"vizkit/internal/config"
	"vizkit/internal/domain"
	"vizkit/internal/engine"
	"vizkit/internal/logger"
	"vizkit/internal/ports"
	"vizkit/internal/service"
	"vizkit/internal/web"
)

const shutdownTimeout = 3 * time.Second

// Application is the root application structure that holds all
// dependencies, wired with constructor-based injection.
type Application struct {
	logger  *slog.Logger
	fyneApp fyne.App

	eventBus ports.EventBus

	indicatorService  *service.IndicatorService
	visualizerService *service.VisualizerService

	mainWindow *ui.MainWindow
	webServer  *web.Server

	settings config.Settings
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier.
	AppID string

	// Settings are the loaded user settings.
	Settings config.Settings

	// LogLevel controls logging verbosity.
	LogLevel slog.Level

	// Source optionally names a spectrum source to start immediately:
	// "synthetic", "mic" or "file".
	Source string

	// FilePath is the audio file to analyze when Source is "file".
	FilePath string

	// TestFyneApp allows injecting a test Fyne app (nil for production).
	TestFyneApp fyne.App
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:    "com.vizkit.app",
		Settings: config.Default(),
		LogLevel: loggerCfg.Level,
	}
}

// NewApplication creates a new application with all dependencies wired.
func NewApplication(cfg Config) (*Application, error) {
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	app := &Application{settings: cfg.Settings}

	if cfg.TestFyneApp != nil {
		app.fyneApp = cfg.TestFyneApp
	} else {
		app.fyneApp = fyneapp.NewWithID(cfg.AppID)
	}

	app.logger = logger.NewLogger(logger.Config{
		Level:  cfg.LogLevel,
		Format: "text",
	})
	app.logger.Info("initializing application", slog.String("app_id", cfg.AppID))

	app.eventBus = eventbus.NewSyncEventBus(
		app.logger.With(slog.String("component", "eventbus")))

	indicatorCfg, err := indicatorConfig(cfg.Settings.Indicator)
	if err != nil {
		return nil, err
	}
	app.indicatorService, err = service.NewIndicatorService(
		app.logger.With(slog.String("service", "indicator")),
		app.eventBus,
		ports.SystemClock{},
		indicatorCfg,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create indicator service: %w", err)
	}

	visualizerCfg, err := visualizerConfig(cfg.Settings.Visualizer)
	if err != nil {
		return nil, err
	}
	app.visualizerService, err = service.NewVisualizerService(
		app.logger.With(slog.String("service", "visualizer")),
		app.eventBus,
		ports.SystemClock{},
		visualizerCfg,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create visualizer service: %w", err)
	}

	radialStyle, err := radialStyle(cfg.Settings.Indicator)
	if err != nil {
		return nil, err
	}
	meterStyle, err := meterStyle(cfg.Settings.Visualizer)
	if err != nil {
		return nil, err
	}

	app.mainWindow = ui.NewMainWindow(
		app.fyneApp,
		app.logger.With(slog.String("component", "window")),
		app.eventBus,
		app.indicatorService,
		app.visualizerService,
		radialStyle,
		meterStyle,
	)

	if cfg.Settings.Web.Enabled {
		app.webServer = web.NewServer(
			app.logger.With(slog.String("component", "web")),
			cfg.Settings.Web.Addr,
			app.indicatorService,
			app.visualizerService,
		)
	}

	if cfg.Source != "" {
		if err := app.startSource(cfg.Source, cfg.FilePath); err != nil {
			// Non-fatal: the UI can still select a source later.
			app.logger.Warn("failed to start initial source",
				slog.String("source", cfg.Source),
				slog.Any("error", err))
		}
	}

	return app, nil
}

// startSource resolves the named source and hands it to the visualizer.
func (a *Application) startSource(name, filePath string) error {
	var src ports.SpectrumSource
	switch name {
	case "synthetic":
		src = spectrum.NewSynthetic()
	case "mic":
		src = spectrum.NewCapture()
	case "file":
		if filePath == "" {
			return fmt.Errorf("source %q requires a file path", name)
		}
		fileSrc, err := spectrum.NewFile(filePath)
		if err != nil {
			return err
		}
		src = fileSrc
	default:
		return fmt.Errorf("unknown source %q", name)
	}

	return a.visualizerService.UseSource(src)
}

// Run starts the application and blocks until the window closes.
func (a *Application) Run() {
	if a.webServer != nil {
		if err := a.webServer.Start(); err != nil {
			a.logger.Warn("failed to start web server", slog.Any("error", err))
			a.webServer = nil
		}
	}

	a.logger.Info("VizKit started")
	a.mainWindow.ShowAndRun()
}

// Shutdown gracefully shuts down the application. Call via defer in
// main.go.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	if a.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.webServer.Shutdown(ctx); err != nil {
			a.logger.Warn("failed to shutdown web server", slog.Any("error", err))
		}
		cancel()
	}

	if a.visualizerService != nil {
		if err := a.visualizerService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown visualizer service", slog.Any("error", err))
		}
	}

	if a.indicatorService != nil {
		if err := a.indicatorService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown indicator service", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		if err := a.eventBus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	spectrum.TerminateCapture()

	a.logger.Info("application shutdown complete")
}

// indicatorConfig maps indicator settings to an engine configuration.
func indicatorConfig(s config.IndicatorSettings) (engine.ProgressConfig, error) {
	mode, err := domain.ParseIndicatorMode(s.Mode)
	if err != nil {
		return engine.ProgressConfig{}, err
	}
	return engine.ProgressConfig{
		Mode:            mode,
		MaxProgress:     s.MaxProgress,
		Timeout:         s.Timeout(),
		InitialProgress: s.InitialProgress,
		Smooth:          s.SmoothAnimation,
		TickDegrees:     s.AnimationTickDegrees,
		ShowText:        s.ShowProgressText,
	}, nil
}

// visualizerConfig maps visualizer settings to a service configuration.
func visualizerConfig(s config.VisualizerSettings) (service.VisualizerConfig, error) {
	variant, err := domain.ParseBarVariant(s.BarVariant)
	if err != nil {
		return service.VisualizerConfig{}, err
	}
	return service.VisualizerConfig{
		Buckets: s.Buckets,
		Bar: engine.BarConfig{
			Variant:     variant,
			StrokeWidth: s.StrokeWidth,
			ShowPeak:    s.ShowPeakBar,
			PeakSpace:   s.PeakBarSpace,
		},
		BucketStride:    s.BucketStride,
		SmoothingFactor: s.SmoothingFactor,
	}, nil
}

// radialStyle maps indicator settings to the widget style.
func radialStyle(s config.IndicatorSettings) (widgets.RadialStyle, error) {
	style := widgets.DefaultRadialStyle()

	secondary, err := domain.ParseSecondaryStyle(s.SecondaryStyle)
	if err != nil {
		return style, err
	}
	style.SecondaryStyle = secondary
	style.Thickness = float64(s.Thickness)
	style.SecondaryThickness = float64(s.SecondaryThickness)

	for _, c := range []struct {
		value string
		dst   *color.Color
	}{
		{s.IndicatorColor, &style.IndicatorColor},
		{s.SecondaryColor, &style.SecondaryColor},
		{s.TrackColor, &style.TrackColor},
		{s.TextColor, &style.TextColor},
	} {
		parsed, err := config.ParseColor(c.value)
		if err != nil {
			return style, err
		}
		*c.dst = parsed
	}
	return style, nil
}

// meterStyle maps visualizer settings to the widget style.
func meterStyle(s config.VisualizerSettings) (widgets.BarMeterStyle, error) {
	style := widgets.DefaultBarMeterStyle()

	variant, err := domain.ParseBarVariant(s.BarVariant)
	if err != nil {
		return style, err
	}
	style.Variant = variant
	style.StrokeWidth = s.StrokeWidth
	style.ShowPeak = s.ShowPeakBar
	style.PeakBarHeight = s.PeakBarHeight

	barColor, err := config.ParseColor(s.BarColor)
	if err != nil {
		return style, err
	}
	style.BarColor = barColor

	peakColor, err := config.ParseColor(s.PeakColor)
	if err != nil {
		return style, err
	}
	style.PeakColor = peakColor

	return style, nil
}
