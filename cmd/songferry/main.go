package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquilora/songferry/internal/catalog"
	"github.com/aquilora/songferry/internal/config"
	"github.com/aquilora/songferry/internal/download"
	"github.com/aquilora/songferry/internal/store"
	"github.com/aquilora/songferry/internal/transport"
)

func main() {
	// Command line flags
	var (
		songFlag    = flag.String("song", "", "Song URL, id, or search keywords")
		outputFlag  = flag.String("output", ".", "Output directory for downloaded songs")
		configFlag  = flag.String("config", "", "Path to config file")
		cookieFlag  = flag.String("cookie", "", "Catalog session cookie (overrides config)")
		modeFlag    = flag.String("mode", "", "Storage mode: disk, memory or hybrid (overrides config)")
		dbFlag      = flag.String("db", "", "Path to the song record database (overrides config)")
		lyricsFlag  = flag.Bool("lyrics", false, "Print lyrics after delivery")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	// CLI mode - require a song
	song := *songFlag
	if song == "" && flag.NArg() > 0 {
		song = flag.Arg(0)
	}
	if song == "" {
		fmt.Println("Songferry - fetch, tag and deliver songs")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  songferry -song <URL|id|keywords> [options]")
		fmt.Println("  songferry <URL|id|keywords> [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: songferry-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if *cookieFlag != "" {
		settings.SessionCookie = *cookieFlag
	}
	if *modeFlag != "" {
		settings.StorageMode = *modeFlag
	}
	if *dbFlag != "" {
		settings.DatabasePath = *dbFlag
	}
	if *lyricsFlag {
		settings.FetchLyrics = true
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

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

	sender, err := buildSender(settings, *outputFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	manager, err := download.NewManager(settings, client, sender, records, func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := "   "
		switch event.Level {
		case download.LevelError:
			prefix = " ✗ "
		case download.LevelWarning:
			prefix = " ! "
		case download.LevelSuccess:
			prefix = " ✓ "
		case download.LevelInfo:
			prefix = " › "
		}

		fmt.Println(prefix + event.Message)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("♪ Songferry")
	fmt.Println()

	songID, err := resolveSong(ctx, client, song)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving song: %v\n", err)
		os.Exit(1)
	}

	if err := manager.Deliver(ctx, songID, nil); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nDelivery cancelled.")
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error delivering song: %v\n", err)
		os.Exit(1)
	}

	if settings.FetchLyrics {
		if err := manager.DeliverLyric(ctx, songID); err != nil {
			fmt.Fprintf(os.Stderr, "Error delivering lyrics: %v\n", err)
		}
	}
}

// buildSender picks the transport: a bot gateway when configured, a local
// directory otherwise.
func buildSender(settings *config.Settings, outputDir string) (transport.Sender, error) {
	if settings.TransportEndpoint != "" {
		return transport.NewHTTPSender(settings.TransportEndpoint, settings.TransportToken), nil
	}
	return transport.NewDirectorySender(outputDir)
}

// resolveSong turns the input into a song id, searching when it is not a
// recognizable id or link.
func resolveSong(ctx context.Context, client *catalog.Client, input string) (uint64, error) {
	if songID, ok := catalog.ParseSongID(input); ok {
		return songID, nil
	}

	songs, err := client.Search(ctx, input, 1)
	if err != nil {
		return 0, err
	}
	if len(songs) == 0 {
		return 0, fmt.Errorf("no results for %q", input)
	}
	fmt.Printf(" › Matched: %s - %s\n", songs[0].ArtistLine(), songs[0].Name)
	return songs[0].ID, nil
}
