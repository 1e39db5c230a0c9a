package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xinyang20/SDDB/internal/alert"
	"github.com/xinyang20/SDDB/internal/app"
	"github.com/xinyang20/SDDB/internal/client"
	"github.com/xinyang20/SDDB/internal/config"
	"github.com/xinyang20/SDDB/internal/export"
	"github.com/xinyang20/SDDB/internal/locale"
	"github.com/xinyang20/SDDB/internal/sound"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	wsURL := flag.String("url", "", "WebSocket URL of the dashboard server (overrides config)")
	token := flag.String("token", "", "Auth token (overrides config)")
	localeFlag := flag.String("locale", "", "Display locale, e.g. zh-CN or en (overrides config)")
	logPath := flag.String("log", "", "Write logs to this file")
	mute := flag.Bool("mute", false, "Disable the alert tone")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *wsURL != "" {
		cfg.Client.URL = *wsURL
	}
	if *token != "" {
		cfg.Client.Token = *token
	}
	if *localeFlag != "" {
		cfg.Client.Locale = *localeFlag
	}
	if *mute {
		cfg.Alerts.Sound = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The alt screen owns stdout; logs go to a file or nowhere.
	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "dashboard")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	var beeper alert.Beeper
	if cfg.Alerts.Sound {
		tone := sound.DefaultTone()
		tone.Frequency = cfg.Alerts.ToneHz
		tone.Duration = cfg.Alerts.ToneDuration
		beeper = sound.NewPlayer(tone)
	}

	m := app.New(app.Deps{
		Transport:    client.NewWSClient(cfg.Client.URL, cfg.Client.Token),
		API:          client.NewHTTPClient(cfg.HTTPBaseURL(), cfg.Client.Token),
		Beeper:       beeper,
		Exporter:     export.New(cfg.Export.Dir),
		FormatTime:   locale.New(cfg.Client.Locale, nil).LastUpdate,
		Heartbeat:    cfg.Client.HeartbeatInterval,
		AlertTimeout: cfg.Alerts.Timeout,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
