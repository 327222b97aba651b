package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpapi "github.com/i474232898/weather-display/internal/api/http"
	"github.com/i474232898/weather-display/internal/config"
	"github.com/i474232898/weather-display/internal/display"
	"github.com/i474232898/weather-display/internal/render"
	"github.com/i474232898/weather-display/internal/render/headless"
	"github.com/i474232898/weather-display/internal/scheduler"
	"github.com/i474232898/weather-display/internal/store"
	"github.com/i474232898/weather-display/internal/weather"
	"github.com/i474232898/weather-display/internal/weather/providers"
)

func main() {
	var (
		zip     = flag.String("zip", "", "5-digit ZIP code to display")
		width   = flag.Int("width", 0, "screen width in pixels (0 keeps the saved value)")
		height  = flag.Int("height", 0, "screen height in pixels (0 keeps the saved value)")
		fps     = flag.Int("fps", 60, "target frames per second")
		quality = flag.Float64("quality", 0, "asset quality 0..1 (0 keeps the saved value)")
		noVSync = flag.Bool("novsync", false, "disable vsync")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Flags win over env, env wins over the saved file.
	dcfg := config.LoadDisplay(cfg.DisplayConfigFile)
	saved := dcfg
	if cfg.Zip != "" {
		dcfg.LastZip = cfg.Zip
	}
	if *zip != "" {
		dcfg.LastZip = *zip
	}
	if *width > 0 {
		dcfg.LastWidth = *width
	}
	if *height > 0 {
		dcfg.LastHeight = *height
	}
	if *quality > 0 && *quality <= 1 {
		dcfg.Quality = *quality
	}
	if *noVSync {
		dcfg.DisableVSync = true
	}
	if dcfg.LastZip == "" {
		log.Fatal().Msg("no ZIP code configured; pass -zip or set WEATHER_ZIP")
	}
	if dcfg != saved {
		if err := config.SaveDisplay(cfg.DisplayConfigFile, dcfg); err != nil {
			log.Warn().Err(err).Str("path", cfg.DisplayConfigFile).Msg("could not persist display config")
		}
	}

	// Radar GIFs are large; they get their own, longer timeout.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	radarClient := &http.Client{Timeout: cfg.RadarTimeout}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	var geocoder weather.Geocoder = providers.NewNominatimGeocoder(httpClient, cfg.UserAgent, "")
	if cfg.Geocoder == config.GeocoderGoogle {
		geocoder = providers.NewGoogleGeocoder(cfg.GoogleAPIKey)
	}
	service := weather.NewService(
		geocoder,
		providers.NewNWSProvider(httpClient, cfg.UserAgent, ""),
		providers.NewMesonetRadar(httpClient, radarClient, cfg.UserAgent, ""),
		memStore,
	)

	// geocode, grid point, conditions, alerts and forecast, then radar
	loadTimeout := 5*cfg.HTTPTimeout + cfg.RadarTimeout

	snapshots := scheduler.NewSnapshotChannel()
	initWorker := scheduler.NewInitWorker(service, dcfg.LastZip, loadTimeout)
	refresh := scheduler.NewRefreshWorker(service, snapshots, dcfg.LastZip, cfg.RefreshInterval, cfg.RefreshStartDelay, loadTimeout)

	var (
		measurer display.TextMeasurer = headless.Measurer{}
		fonts    *render.Fonts
		player   display.AudioPlayer
	)
	if !cfg.Headless {
		if fonts, err = render.NewFonts(); err != nil {
			log.Fatal().Err(err).Msg("failed to load fonts")
		}
		measurer = fonts
		player = render.NewCuePlayer(audio.NewContext(render.SampleRate), cfg.AssetDir)
	}

	icons, err := display.LoadIconRules(cfg.IconRulesFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.IconRulesFile).Msg("icon rules override unusable; using built-in rules")
		icons = display.DefaultIconRules()
	}

	board := display.NewStatusBoard()
	dctx := display.NewDisplayContext(dcfg.LastWidth, dcfg.LastHeight, dcfg.Quality, dcfg.ShowFPS, measurer)
	loop := display.NewRenderLoop(display.LoopConfig{
		Context:   dctx,
		Init:      initWorker,
		Snapshots: snapshots,
		Audio:     player,
		Icons:     icons,
		MOTD:      display.DefaultMOTD(),
		CrashLog:  display.NewCrashLog(cfg.LogDir),
		Status:    board,
		OnInitComplete: func() {
			if err := refresh.Start(); err != nil {
				log.Error().Err(err).Msg("failed to start refresh worker")
			}
		},
	}, time.Now())

	log.Info().
		Str("zip", dcfg.LastZip).
		Int("width", dcfg.LastWidth).
		Int("height", dcfg.LastHeight).
		Float64("quality", dcfg.Quality).
		Bool("headless", cfg.Headless).
		Msg("weather display starting")
	initWorker.Start()

	app := startAPI(cfg.Port, service, board)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Headless {
		err = headless.Run(ctx, loop, &headless.Presenter{}, *fps)
	} else {
		game := render.NewGame(loop, render.NewPainter(fonts, render.NewAssets(cfg.AssetDir, dcfg.Quality)), dcfg.LastWidth, dcfg.LastHeight)
		go func() {
			<-ctx.Done()
			game.Quit()
		}()
		err = render.Run(game, render.WindowOptions{
			Title:   "Weather Display",
			Width:   dcfg.LastWidth,
			Height:  dcfg.LastHeight,
			TPS:     *fps,
			VSync:   !dcfg.DisableVSync,
			Resizes: true,
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("display stopped with error")
	}

	refresh.Stop(cfg.WorkerJoinTimeout)
	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("error during status API shutdown")
		}
	}
	log.Info().Msg("weather display stopped")
}

// startAPI serves the status API on port, or returns nil when port is empty.
func startAPI(port string, history httpapi.History, board *display.StatusBoard) *fiber.App {
	if port == "" {
		log.Info().Msg("status API disabled")
		return nil
	}

	app := fiber.New(fiber.Config{
		AppName:               "weather-display",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(logger.New())
	app.Use(recover.New())
	httpapi.RegisterRoutes(app, history, board)

	go func() {
		log.Info().Str("port", port).Msg("status API listening")
		if err := app.Listen(":" + port); err != nil {
			log.Warn().Err(err).Msg("status API stopped")
		}
	}()
	return app
}
