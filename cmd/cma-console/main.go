package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cato-helper/console/internal/app"
	"github.com/cato-helper/console/internal/client"
	"github.com/cato-helper/console/internal/config"
	"github.com/cato-helper/console/internal/profile"
	"github.com/cato-helper/console/internal/session"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	baseURL := flag.String("url", "", "Override helper daemon base URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.Console.BaseURL = *baseURL
		cfg.Console.LogStreamURL = deriveWSURL(*baseURL)
	}

	if os.Getenv("CMA_CONSOLE_DEBUG") != "" {
		f, err := tea.LogToFile("cma-console.log", "debug")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(os.Stderr)
	}

	profileStore, err := profile.NewFileStore(cfg.Console.ProfilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open profile store: %v\n", err)
		os.Exit(1)
	}
	seedProfile, err := profileStore.Load()
	if err != nil {
		// A corrupt profile file only loses the pre-seeded label.
		log.Printf("profile load failed (continuing): %v", err)
	}

	httpClient := client.NewHTTPClient(cfg.Console.BaseURL, cfg.Console.HTTPTimeout.Std())
	ws := client.NewWSClient(cfg.Console.LogStreamURL)

	store := session.NewStore(seedProfile)
	ctrl := session.NewController(httpClient, store, profileStore)
	ctrl.SetPollInterval(cfg.Console.PollInterval.Std())

	m := app.New(httpClient, ws, ctrl, seedProfile)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// deriveWSURL converts http://host:port → ws://host:port/ws/logs.
func deriveWSURL(base string) string {
	switch {
	case len(base) > 8 && base[:8] == "https://":
		return "wss://" + base[8:] + "/ws/logs"
	case len(base) > 7 && base[:7] == "http://":
		return "ws://" + base[7:] + "/ws/logs"
	default:
		return "ws://" + base + "/ws/logs"
	}
}
