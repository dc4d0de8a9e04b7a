// Package ui assembles the VizKit demo window: the radial indicator
// with its controls on one side, the visualizer bar meter with its
// source controls on the other. The window is a passive view; it calls
// into the services and repaints from their frames and events.
package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"vizkit/internal/adapter/spectrum"
	"vizkit/internal/adapter/ui/fyne/widgets"
	"vizkit/internal/domain"
	"vizkit/internal/ports"
	"vizkit/internal/service"
)

// MainWindow is the demo window for the VizKit widgets.
type MainWindow struct {
	logger *slog.Logger
	bus    ports.EventBus

	indicator  *service.IndicatorService
	visualizer *service.VisualizerService

	window      fyne.Window
	radial      *widgets.RadialIndicator
	meter       *widgets.BarMeter
	statusLabel *widget.Label
	trackLabel  *widget.Label

	subscriptions []domain.SubscriptionID
}

// NewMainWindow builds the demo window and wires the widgets to the
// services.
func NewMainWindow(
	app fyne.App,
	logger *slog.Logger,
	bus ports.EventBus,
	indicator *service.IndicatorService,
	visualizer *service.VisualizerService,
	radialStyle widgets.RadialStyle,
	meterStyle widgets.BarMeterStyle,
) *MainWindow {
	w := &MainWindow{
		logger:      logger,
		bus:         bus,
		indicator:   indicator,
		visualizer:  visualizer,
		window:      app.NewWindow("VizKit"),
		statusLabel: widget.NewLabel(""),
		trackLabel:  widget.NewLabel(""),
	}

	w.radial = widgets.NewRadialIndicator(radialStyle)
	w.meter = widgets.NewBarMeter(meterStyle, visualizer.SetViewHeight)

	indicator.OnFrame(w.radial.SetFrame)
	visualizer.OnFrame(w.meter.SetFrame)

	w.subscribe()
	w.window.SetContent(w.buildContent())
	w.window.Resize(fyne.NewSize(720, 420))

	return w
}

// Window returns the underlying Fyne window.
func (w *MainWindow) Window() fyne.Window {
	return w.window
}

// ShowAndRun shows the window and enters the Fyne main loop.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close tears down event subscriptions and closes the window.
func (w *MainWindow) Close() {
	for _, id := range w.subscriptions {
		w.bus.Unsubscribe(id)
	}
	w.window.Close()
}

// subscribe reacts to service events with status line updates.
func (w *MainWindow) subscribe() {
	w.subscriptions = append(w.subscriptions,
		w.bus.Subscribe(domain.EventTimerExpired, func(e domain.Event) {
			w.setStatus("countdown expired")
		}),
		w.bus.Subscribe(domain.EventSourceStarted, func(e domain.Event) {
			ev := e.(domain.SourceStartedEvent)
			w.setStatus(fmt.Sprintf("source: %s", ev.Name))
		}),
		w.bus.Subscribe(domain.EventSourceStopped, func(e domain.Event) {
			w.setStatus("source stopped")
			w.trackLabel.SetText("")
		}),
		w.bus.Subscribe(domain.EventTrackInfo, func(e domain.Event) {
			info := e.(domain.TrackInfoEvent).Info
			if info.Artist != "" {
				w.trackLabel.SetText(fmt.Sprintf("%s - %s", info.Artist, info.Title))
				return
			}
			w.trackLabel.SetText(info.Title)
		}),
	)
}

func (w *MainWindow) setStatus(text string) {
	w.statusLabel.SetText(text)
}

// buildContent lays out the indicator and visualizer panes.
func (w *MainWindow) buildContent() fyne.CanvasObject {
	indicatorPane := container.NewBorder(
		nil,
		w.indicatorControls(),
		nil, nil,
		w.radial,
	)

	visualizerPane := container.NewBorder(
		nil,
		container.NewVBox(w.sourceControls(), w.trackLabel),
		nil, nil,
		w.meter,
	)

	split := container.NewHSplit(indicatorPane, visualizerPane)
	split.SetOffset(0.4)

	return container.NewBorder(nil, w.statusLabel, nil, nil, split)
}

// indicatorControls builds the timer and progress controls.
func (w *MainWindow) indicatorControls() fyne.CanvasObject {
	progress := widget.NewSlider(0, 100)
	progress.OnChanged = func(v float64) {
		w.indicator.SetProgress(int(v))
	}

	secondary := widget.NewSlider(0, 100)
	secondary.OnChanged = func(v float64) {
		w.indicator.SetSecondaryProgress(int(v))
	}

	mode := widget.NewSelect(
		[]string{
			domain.ModeTimer.String(),
			domain.ModePercentage.String(),
			domain.ModeFixed.String(),
		},
		func(selected string) {
			m, err := domain.ParseIndicatorMode(selected)
			if err != nil {
				return
			}
			if err := w.indicator.SetMode(m); err != nil {
				w.logger.Warn("failed to switch mode", slog.Any("error", err))
			}
		},
	)
	mode.SetSelected(w.indicator.Mode().String())

	timerRow := container.NewHBox(
		widget.NewButton("Start", w.indicator.StartTimer),
		widget.NewButton("Stop", w.indicator.StopTimer),
		widget.NewButton("Reset", w.indicator.ResetTimer),
		widget.NewButton("OK", w.indicator.ShowSuccess),
		widget.NewButton("Fail", w.indicator.ShowFailure),
		widget.NewButton("Clear", w.indicator.ClearGlyph),
	)

	return container.NewVBox(
		mode,
		timerRow,
		widget.NewLabel("Progress"),
		progress,
		widget.NewLabel("Secondary"),
		secondary,
	)
}

// sourceControls builds the spectrum source selection row.
func (w *MainWindow) sourceControls() fyne.CanvasObject {
	return container.NewHBox(
		widget.NewButton("Tones", func() {
			w.useSource(spectrum.NewSynthetic())
		}),
		widget.NewButton("Microphone", func() {
			w.useSource(spectrum.NewCapture())
		}),
		widget.NewButton("Open File…", w.openFile),
		widget.NewButton("Silence", func() {
			if err := w.visualizer.StopSource(); err != nil {
				w.logger.Debug("stop source", slog.Any("error", err))
			}
		}),
	)
}

// openFile prompts for an audio file and plays it through the
// visualizer.
func (w *MainWindow) openFile() {
	dialog.ShowFileOpen(func(uri fyne.URIReadCloser, err error) {
		if err != nil || uri == nil {
			return
		}
		path := uri.URI().Path()
		_ = uri.Close()

		src, err := spectrum.NewFile(path)
		if err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.useSource(src)
	}, w.window)
}

func (w *MainWindow) useSource(src ports.SpectrumSource) {
	if err := w.visualizer.UseSource(src); err != nil {
		w.logger.Error("failed to start source",
			slog.String("source", src.Name()),
			slog.Any("error", err))
		dialog.ShowError(err, w.window)
	}
}
