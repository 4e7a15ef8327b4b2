package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aquilora/songferry/internal/catalog"
	"github.com/aquilora/songferry/internal/config"
	"github.com/aquilora/songferry/internal/download"
	"github.com/aquilora/songferry/internal/store"
	"github.com/aquilora/songferry/internal/transport"
	"github.com/aquilora/songferry/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", "", "Path to config file")
		outputFlag = flag.String("output", ".", "Output directory for downloaded songs")
	)
	flag.Parse()

	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	client := catalog.NewClient(settings.CatalogBaseURL, settings.SessionCookie)

	var records store.Store
	if settings.DatabasePath != "" {
		var err error
		records, err = store.Open(settings.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
			os.Exit(1)
		}
		defer records.Close()
	}

	var sender transport.Sender
	var err error
	if settings.TransportEndpoint != "" {
		sender = transport.NewHTTPSender(settings.TransportEndpoint, settings.TransportToken)
	} else {
		sender, err = transport.NewDirectorySender(*outputFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	events := make(chan download.ProgressEvent, 64)
	manager, err := download.NewManager(settings, client, sender, records, func(event download.ProgressEvent) {
		select {
		case events <- event:
		default:
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	deps := tui.Deps{
		Settings: settings,
		Catalog:  client,
		Manager:  manager,
		Events:   events,
	}

	if err := tui.Run(deps); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
