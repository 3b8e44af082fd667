package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/PixelPath7/vive-sano/configs"
	"github.com/PixelPath7/vive-sano/internal/auth"
	"github.com/PixelPath7/vive-sano/internal/db"
	"github.com/PixelPath7/vive-sano/internal/handlers"
	"github.com/PixelPath7/vive-sano/internal/logger"
	"github.com/PixelPath7/vive-sano/internal/notifier"
	"github.com/PixelPath7/vive-sano/internal/web"
)

func main() {

	config.LoadEnvFile(".env")
	appCfg := config.LoadAppConfig()

	logger.Init("vive-sano", appCfg.IsDevelopment())
	logger.SetLevel(appCfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db.Init(config.LoadDatabaseConfig())
	auth.Init(ctx, config.LoadOIDCConfig())
	notifier.Init(ctx)

	if !appCfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.RequestLogger())
	r.SetHTMLTemplate(web.Templates())

	// ── session store ──
	store := cookie.NewStore([]byte(appCfg.SessionSecret))
	r.Use(sessions.Sessions(auth.SessionName, store))

	// ── public endpoints ──
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/auth/login", auth.Login)
	r.GET("/auth/callback", auth.Callback)
	r.GET("/auth/logout", auth.Logout)

	handlers.RegisterRoutes(r)

	srv := &http.Server{Addr: ":" + appCfg.Port, Handler: r}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	notifier.Wait()

	log.Info().Msg("server stopped")
}
