// Package main is the entry point for the VizKit demo application.
//
// VizKit renders two animated widgets: a radial progress indicator
// (countdown, percentage or fixed-value display) and an audio spectrum
// bar meter fed by a synthetic tone generator, the microphone or an
// audio file.
//
// Build:
//
//	go build -o build/vizkit ./cmd
//
// Run:
//
//	./build/vizkit -source synthetic
package main

import (
	"flag"
	"log"

	"vizkit/internal/app"
	"vizkit/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to settings file (default: user config dir)")
		source     = flag.String("source", "", "spectrum source to start: synthetic, mic or file")
		filePath   = flag.String("file", "", "audio file to analyze when -source=file")
		webAddr    = flag.String("web", "", "serve frames over HTTP on this address (overrides settings)")
	)
	flag.Parse()

	var settings config.Settings
	var err error
	if *configPath != "" {
		settings, err = config.LoadFrom(*configPath)
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	if *webAddr != "" {
		settings.Web.Enabled = true
		settings.Web.Addr = *webAddr
	}

	cfg := app.DefaultConfig()
	cfg.Settings = settings
	cfg.Source = *source
	cfg.FilePath = *filePath

	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer application.Shutdown()

	// Run application (blocks until the window closed)
	application.Run()
}
