// Package main provides the storybox entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/storybox/internal/app/filter"
	"github.com/osa030/storybox/internal/app/playback"
	"github.com/osa030/storybox/internal/app/repository"
	"github.com/osa030/storybox/internal/app/session"
	"github.com/osa030/storybox/internal/infra/config"
	"github.com/osa030/storybox/internal/infra/logger"
	"github.com/osa030/storybox/internal/infra/metrics"
	"github.com/osa030/storybox/internal/infra/storyfile"
	"github.com/osa030/storybox/internal/tui"
)

var (
	app        = kingpin.New("storybox", "Short-form video story viewer")
	configPath = app.Flag("config", "Path to config file (default: built-in settings)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout, discarded in the viewer)").String()

	// view command (default)
	viewCmd = app.Command("view", "Open the terminal story viewer (default)").Default()

	// play command
	playCmd   = app.Command("play", "Play stories headless and log what the viewer does")
	playStory = playCmd.Flag("story", "Story ID to start at (default: newest)").Int()

	// list command
	listCmd = app.Command("list", "List stories and exit")

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available creation filters and exit")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: logger.OutputStdout,
		Level:  "info",
	}
	if command == viewCmd.FullCommand() {
		// The viewer owns the terminal
		loggerConfig.Output = logger.OutputDiscard
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = logger.OutputFile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(command, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		zlog.Info().Msg("Using built-in config")
		return config.Default()
	}
	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the selected command. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(command string, cfg *config.Config) error {
	// Validate filter config
	if err := validateFilterConfig(cfg); err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	stories, err := storyfile.Load(cfg.Stories.File, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to load stories")
	}
	repo, err := repository.New(stories)
	if err != nil {
		return errors.Wrap(err, "failed to create repository")
	}

	if command == listCmd.FullCommand() {
		printStories(repo)
		return nil
	}

	met := metrics.New()
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, met, repo)
		defer stop()
	}

	switch command {
	case playCmd.FullCommand():
		return play(cfg, repo, met, *playStory)
	default:
		surface := tui.NewSurface()
		sessionMgr := session.NewManager(cfg, repo, session.Options{
			Surface:     surface,
			ManualClock: true,
			Metrics:     met,
		})
		defer sessionMgr.Shutdown()

		return tui.Run(&tui.Options{
			Session:      sessionMgr,
			Surface:      surface,
			TickInterval: cfg.TickInterval(),
			SampleVideos: cfg.Creation.SampleVideos,
		})
	}
}

// play runs the viewer headless with the live clock until it runs off the
// end of the last story or a signal arrives.
func play(cfg *config.Config, repo *repository.Repository, met *metrics.Metrics, storyID int) error {
	sessionMgr := session.NewManager(cfg, repo, session.Options{
		Surface: session.LogSurface{},
		Metrics: met,
	})
	defer sessionMgr.Shutdown()

	sessionMgr.GetNotificationManager().Subscribe(notificationLogger{})

	if storyID == 0 {
		all := repo.All()
		if len(all) == 0 {
			return errors.New("no stories to play")
		}
		storyID = all[0].ID
	}
	dismissed, err := sessionMgr.Open(storyID)
	if err != nil {
		return errors.Wrapf(err, "failed to open story %d", storyID)
	}

	// Wait for shutdown signal or the end of the last story
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
		sessionMgr.Close()
	case <-dismissed:
		zlog.Info().Msg("All stories played")
	}

	zlog.Info().Msgf("Unviewed stories: %d/%d", repo.UnviewedCount(), repo.Count())
	return nil
}

// notificationLogger logs lifecycle events of the headless player.
type notificationLogger struct{}

func (notificationLogger) HandleEvent(e playback.Event) {
	zlog.Info().Msgf("event: type=%s story=%d index=%d/%d state=%s",
		e.Type, e.StoryID, e.StoryIndex, e.MediaIndex, e.State)
}

// serveMetrics starts the metrics endpoint and returns a function that stops it.
func serveMetrics(addr string, met *metrics.Metrics, repo *repository.Repository) func() {
	server := &http.Server{
		Addr:    addr,
		Handler: met.Router(func() { met.SetStories(repo.Count()) }),
	}

	go func() {
		zlog.Info().Msgf("Starting metrics server: addr=%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error().Msgf("Metrics server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			zlog.Error().Msgf("Failed to shutdown metrics server: %v", err)
		}
	}
}

// printStories prints the tray.
func printStories(repo *repository.Repository) {
	now := time.Now()
	fmt.Printf("Stories (%d unviewed):\n", repo.UnviewedCount())
	for _, s := range repo.All() {
		mark := "*"
		if s.Viewed {
			mark = " "
		}
		fmt.Printf("  %s %3d  %-20s %-10s %d segment(s), %v\n",
			mark, s.ID, s.AuthorHandle, s.Age(now), len(s.Media), s.TotalDuration())
	}
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, factory := range filter.GetRegistered() {
		f := factory()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// validateFilterConfig validates filter configurations.
func validateFilterConfig(cfg *config.Config) error {
	registry := filter.GetRegistered()

	for filterName, filterCfg := range cfg.Filters {
		if !filterCfg.Enabled {
			continue
		}

		factory, exists := registry[filterName]
		if !exists {
			return errors.Newf("unknown filter: %s", filterName)
		}

		f := factory()
		if err := f.ValidateConfig(filterCfg.Settings); err != nil {
			return errors.Wrapf(err, "filter %s", filterName)
		}
	}

	return nil
}
