package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eternisai/push-panel/internal/config"
	"github.com/eternisai/push-panel/internal/credentials"
	"github.com/eternisai/push-panel/internal/desktopnotify"
	apperrors "github.com/eternisai/push-panel/internal/errors"
	"github.com/eternisai/push-panel/internal/eventloop"
	"github.com/eternisai/push-panel/internal/logger"
	"github.com/eternisai/push-panel/internal/notifications"
	"github.com/eternisai/push-panel/internal/panel"
	"github.com/eternisai/push-panel/internal/tokenstore"
	"github.com/eternisai/push-panel/internal/tray"
	"github.com/eternisai/push-panel/internal/webpanel"
	"github.com/gin-gonic/gin"
	"github.com/mixer/clock"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat, cfg.LogFile))

	if err := runApp(cfg, log); err != nil {
		var cfgErr *apperrors.ConfigurationError
		if errors.As(err, &cfgErr) {
			log.Error("credential document could not be resolved",
				slog.String("resource", cfgErr.Resource),
				slog.String("error", err.Error()))
		} else {
			log.Error("push panel exited with error",
				slog.String("error", err.Error()))
		}
		log.Close()
		os.Exit(1)
	}

	log.Info("push panel exited")
	log.Close()
}

func runApp(cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	var debugTransport http.RoundTripper
	if cfg.DebugTransport {
		endpoint, err := url.Parse(cfg.FCMEndpoint)
		if err != nil {
			return fmt.Errorf("parsing FCM_ENDPOINT: %w", err)
		}
		debugTransport = notifications.NewLoggingTransport(endpoint.Host, log)
		httpClient.Transport = debugTransport
	}

	provider, err := credentials.LoadFile(cfg.FirebaseKeyFile, credentials.Options{
		Scopes:        []string{cfg.FCMScope},
		RefreshMargin: cfg.TokenRefreshMargin,
		HTTPClient:    &http.Client{Timeout: cfg.RequestTimeout()},
	}, log)
	if err != nil {
		return err
	}

	log.Info("credential loaded",
		slog.String("project_id", provider.ProjectID()),
		slog.String("delivery_mode", cfg.DeliveryMode))

	var sender notifications.Sender
	switch cfg.DeliveryMode {
	case config.DeliveryModeSDK:
		sdkSender, err := notifications.NewSDKSender(ctx, provider.ProjectID(), provider.CredentialsJSON(), debugTransport)
		if err != nil {
			return &apperrors.ConfigurationError{Resource: cfg.FirebaseKeyFile, Err: err}
		}
		sender = sdkSender
	default:
		sender = notifications.NewHTTPSender(cfg.FCMEndpoint, provider.ProjectID(), provider, httpClient, log)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dispatcher := notifications.NewDispatcher(sender, notifications.NewMetrics(registry), log)

	screen := panel.StaticScreen{
		ScreenSize: panel.Size{W: cfg.Panel.ScreenWidth, H: cfg.Panel.ScreenHeight},
		Tray: panel.Rect{
			X: cfg.Panel.TrayIconX,
			Y: cfg.Panel.TrayIconY,
			W: cfg.Panel.TrayIconWidth,
			H: cfg.Panel.TrayIconHeight,
		},
	}

	loop := eventloop.New(clock.DefaultClock{})
	hub := webpanel.NewHub(log)
	surface := webpanel.NewSurface(hub, screen.Size(), desktopnotify.New(log, ""), log)

	// The loop is not running yet, so building the controller here is the
	// only access until the loop takes over.
	controller := panel.NewController(panel.AppContext{
		Scheduler:         loop,
		Logger:            log,
		Screen:            screen,
		PanelSize:         panel.Size{W: cfg.Panel.Width, H: cfg.Panel.Height},
		AnimationDuration: cfg.Panel.AnimationDuration,
		FlashDuration:     cfg.Panel.FlashDuration,
	}, surface, dispatcher, tokenstore.New(cfg.TokenFile))

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := webpanel.NewHandler(loop, controller, surface, hub, log)
	server := webpanel.NewServer(cfg.PanelAddr, webpanel.NewRouter(handler, registry, log), log)
	if err := server.Listen(); err != nil {
		return err
	}

	exitCh := make(chan struct{})
	var exitOnce sync.Once
	requestExit := func() { exitOnce.Do(func() { close(exitCh) }) }

	openPanel := func() {
		if err := tray.OpenURL(server.URL()); err != nil {
			log.Warn("failed to open panel in browser",
				slog.String("url", server.URL()),
				slog.String("error", err.Error()))
		}
	}

	menu := tray.New(tray.Actions{
		Toggle:    func() { loop.Post(controller.Toggle) },
		OpenPanel: openPanel,
		Exit:      requestExit,
	}, log)

	var runGroup run.Group

	// listen for signals
	signals := make(chan os.Signal, 1)
	runGroup.Add(func() error {
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-signals:
			log.Info("received signal, shutting down",
				slog.String("signal", sig.String()))
		case <-exitCh:
		}
		return nil
	}, func(error) {
		signal.Stop(signals)
		requestExit()
	})

	// UI thread
	loopCtx, stopLoop := context.WithCancel(ctx)
	runGroup.Add(func() error {
		err := loop.Run(loopCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}, func(error) {
		closeCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := loop.Do(closeCtx, controller.Close); err != nil {
			log.Warn("closing panel controller",
				slog.String("error", err.Error()))
		}
		stopLoop()
	})

	// panel page
	runGroup.Add(server.Serve, func(error) {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutting down panel server",
				slog.String("error", err.Error()))
		}
	})

	// tray exit
	runGroup.Add(func() error {
		<-exitCh
		return nil
	}, func(error) {
		menu.Shutdown()
	})

	if cfg.OpenBrowserOnStart {
		openPanel()
	}

	runErr := make(chan error, 1)
	go func() {
		// the tray needs the main thread
		runErr <- runGroup.Run()
	}()

	// blocks until the menu is shut down
	menu.Init()
	requestExit()

	return <-runErr
}
