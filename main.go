// Package main provides the entry point for the Solar Annotator application.
package main

import (
	"flag"
	"log"

	"solar-annotator/internal/app"
	"solar-annotator/internal/config"
	"solar-annotator/internal/version"
	"solar-annotator/ui/mainwindow"
	"solar-annotator/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appID = "org.solar.annotator"

func main() {
	configPath := flag.String("config", "", "class and display configuration (YAML or JSON)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting Solar Annotator v%s", version.Version)

	appPrefs := prefs.Load()
	cfg, err := loadConfig(*configPath, appPrefs)
	if err != nil {
		log.Fatalf("Configuration: %v", err)
	}
	if cfg.Path != "" {
		appPrefs.SetString(prefs.KeyLastConfig, cfg.Path)
	}
	log.Printf("%d classes, tracer %s", cfg.Mapping().Len(), cfg.Boundary.Method)

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.AnnotatorTheme{})

	state := app.NewState(cfg)
	win := mainwindow.New(fyneApp, state, appPrefs)

	if path := flag.Arg(0); path != "" {
		if err := state.OpenDocument(path); err != nil {
			log.Printf("Failed to open %s: %v", path, err)
		}
	}

	win.ShowAndRun()
}

// loadConfig reads the named configuration, else the one used last time,
// else the built-in default. A remembered file that no longer loads is
// skipped with a warning; an explicit one is an error.
func loadConfig(path string, p *prefs.Prefs) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if last := p.String(prefs.KeyLastConfig); last != "" {
		cfg, err := config.Load(last)
		if err == nil {
			return cfg, nil
		}
		log.Printf("Ignoring last configuration: %v", err)
	}
	return config.Default(), nil
}
