package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	apiclient "github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/adapters/api"
	router "github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/adapters/http"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/adapters/rtc"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/adapters/streaming"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/config"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/domain"
	"github.com/slootmaekersdirk/genesys-cloud-webrtc-sdk/internal/sessions"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	provider := rtc.NewStaticProvider([]domain.Device{
		{ID: "default-mic", Label: "Default Microphone", Kind: domain.DeviceKindAudioInput},
		{ID: "default-cam", Label: "Default Camera", Kind: domain.DeviceKindVideoInput},
		{ID: "default-speakers", Label: "Default Speakers", Kind: domain.DeviceKindAudioOutput},
	}, true)
	engine := rtc.NewEngine(provider, rtc.DefaultWebRTCConfig())

	conversations := apiclient.NewClient(cfg.APIBaseURL, cfg.AuthToken, cfg.HTTPTimeout)
	transport := streaming.NewTransport(cfg.StreamingURL, cfg.AuthToken, engine)

	var allowed []domain.SessionType
	for _, t := range cfg.AllowedSessionTypes {
		allowed = append(allowed, domain.SessionType(t))
	}
	manager := sessions.NewManager(sessions.Config{
		UserID:              domain.UserID(cfg.UserID),
		AllowedSessionTypes: allowed,
		DisableAutoAnswer:   cfg.DisableAutoAnswer,
		AutoConnectSessions: cfg.AutoConnectSessions,
	}, transport, engine, conversations)
	transport.SetEvents(manager)

	if err := transport.Connect(ctx); err != nil {
		log.Error().Err(err).Msg("failed to connect signaling transport")
		return
	}
	defer transport.Close()

	r := router.SetupRouter(cfg.Mode, manager, transport)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("softphone control API started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
