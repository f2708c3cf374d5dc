package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"hpmusic/catalog"
	appConfig "hpmusic/config"
	"hpmusic/controller"
	"hpmusic/database"
	"hpmusic/handlers"
	"hpmusic/models"
	"hpmusic/musicapi"
	"hpmusic/sentry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}
	cfg := appConfig.NewConfig()
	setupLogging(cfg.Options.LogLevel)

	if err := sentry.Init(cfg.Sentry.DSN, cfg.Sentry.Release, cfg.Sentry.Environment); err != nil {
		log.Warnf("Sentry disabled: %v", err)
	}
	defer sentry.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Errorf("hpmusic: %v", err)
		sentry.Flush()
		os.Exit(1)
	}
}

func setupLogging(level string) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "sessionID"},
		TimestampFormat: time.RFC3339,
	})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "hpmusic",
		Usage:  "HP Music web service and music API tools",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serve,
			},
			{
				Name:      "search",
				Usage:     "Search the music API for tracks",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Usage:   "Number of results (1-50)",
						Value:   handlers.DefaultLimit,
					},
				},
				Action: searchTracks,
			},
			{
				Name:      "track",
				Usage:     "Fetch a single track from the music API",
				ArgsUsage: "<id>",
				Action:    getTrack,
			},
		},
	}
}

func newMusicClient() *musicapi.Client {
	cfg := appConfig.Config.MusicAPI
	if !cfg.HasCredentials() {
		log.WithFields(log.Fields{"module": "main"}).Warn("MUSIC_CLIENT_ID or MUSIC_CLIENT_SECRET not set, music API authentication will fail")
	}
	return musicapi.New(musicapi.Config{
		BaseURL:      cfg.BaseURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
}

func loadCatalog(path string) ([]models.Song, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	songs, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"module": "main"}).Infof("Loaded %d catalog songs from %s", len(songs), path)
	return songs, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg := appConfig.Config
	logger := log.WithFields(log.Fields{"module": "main"})

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	songs, err := loadCatalog(cfg.Dashboard.CatalogFile)
	if err != nil {
		return err
	}

	client := newMusicClient()
	ctrl := controller.NewController(controller.Options{
		Catalog:     songs,
		Mode:        controller.SearchMode(cfg.Dashboard.SearchMode),
		Client:      client,
		SearchLimit: handlers.DefaultLimit,
		IdleTimeout: time.Duration(cfg.Dashboard.SessionIdleMinutes) * time.Minute,
	})
	go ctrl.Run(ctx)

	manager := handlers.NewManager(client, ctrl)
	if cfg.Database.TrackCacheEnabled() {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open track cache: %w", err)
		}
		defer db.Close()

		ttl := time.Duration(cfg.Database.TrackCacheTTLMinutes) * time.Minute
		if purged, err := db.PurgeOlderThan(ttl); err != nil {
			logger.Warnf("Failed to purge stale tracks: %v", err)
		} else if purged > 0 {
			logger.Debugf("Purged %d stale tracks", purged)
		}
		manager.WithTrackCache(db, ttl)
		logger.Infof("Track cache enabled at %s (ttl %s)", cfg.Database.Path, ttl)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Options.Port,
		Handler:           handlers.NewRouter(manager),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s (search mode %s)", server.Addr, ctrl.Mode())
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func searchTracks(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return errors.New("search query is required")
	}

	result, err := newMusicClient().SearchTracks(ctx, query, handlers.ParseLimit(fmt.Sprint(cmd.Int("limit"))))
	if err != nil {
		return err
	}
	return printJSON(result.Songs())
}

func getTrack(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.Args().First())
	if id == "" {
		return errors.New("track id is required")
	}

	track, err := newMusicClient().GetTrack(ctx, id)
	if err != nil {
		return err
	}
	return printJSON(track.Song())
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
