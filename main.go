package main

import (
	"context"
	"embed"
	"encoding/base64"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/client"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/config"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/graceful"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/logger"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/controller"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/middleware"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/worker"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/router"
)

//go:embed web/docs/*
var docsFS embed.FS

func main() {
	common.Init()
	logger.SetupLogger()

	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else if os.Getenv("GIN_MODE") != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	model.InitDB()
	defer func() {
		if err := model.CloseDB(); err != nil {
			logger.Logger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := common.InitRedisClient(); err != nil {
		logger.Logger.Fatal("failed to initialize Redis", zap.Error(err))
	}

	tokenizer.Init()
	client.Init()

	// One shared limiter registry: workers and principals referencing the same
	// quota see the same windows.
	limiters := worker.NewLimiters(nil, model.GetStore())
	pool := worker.NewPool(limiters, model.GetStore(), relay.GetAdaptor)
	models, err := model.GetStore().GetModels()
	if err != nil {
		logger.Logger.Fatal("failed to load stored models", zap.Error(err))
	}
	pool.Rebuild(models)
	controller.Setup(pool, limiters)

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		middleware.RelayPanicRecover(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
		middleware.RequestId(),
		cors.Default(),
		gzip.Gzip(gzip.DefaultCompression),
	)

	sessionSecret, err := base64.StdEncoding.DecodeString(config.SessionSecret)
	var sessionStore cookie.Store
	if err != nil {
		logger.Logger.Info("session secret is not base64 encoded, using raw value instead")
		sessionStore = cookie.NewStore([]byte(config.SessionSecret))
	} else {
		sessionStore = cookie.NewStore(sessionSecret, sessionSecret)
	}
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * config.CookieMaxAgeHours,
		SameSite: http.SameSiteLaxMode,
		Secure:   config.EnableCookieSecure,
		HttpOnly: true,
	})
	server.Use(sessions.Sessions("session", sessionStore))

	if config.EnablePrometheusMetrics {
		server.GET("/metrics", middleware.AdminAuth(), gin.WrapH(promhttp.Handler()))
	}

	router.SetRouter(server, docsFS)

	port := config.ServerPort
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: server,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("shutting down, draining in-flight work")
	graceful.SetDraining()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	graceful.GoCritical(ctx, "worker pool drain", func(context.Context) {
		pool.Shutdown()
	})
	if err := graceful.Drain(ctx); err != nil {
		logger.Logger.Error("drain incomplete at deadline", zap.Error(err))
	}
}
