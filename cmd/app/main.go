package main

import (
	"context"
	"log/slog"
	"os"

	"lwm2mbridge/pkg/api"
	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/setup"

	"github.com/gin-gonic/gin"
)

func main() {
	// ══════════════════════════════════════════════════════════════
	// CONFIGURATION
	// ══════════════════════════════════════════════════════════════
	conf, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load conf", "error", err)
		os.Exit(1)
	}

	// ══════════════════════════════════════════════════════════════
	// STRUCTURED LOGGING
	// ══════════════════════════════════════════════════════════════
	slog.SetDefault(setup.NewLogger(os.Stdout, conf.LogLevel))
	slog.Info("Config loaded", "auth_mode", conf.AuthMode, "timeout", conf.RequestTimeout().String())

	// ══════════════════════════════════════════════════════════════
	// DISPATCHER
	// ══════════════════════════════════════════════════════════════
	dispatcher, cleanup, err := setup.Dispatcher(context.Background(), conf)
	if err != nil {
		slog.Error("Failed to initialize dispatcher", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	auth := api.Auth(conf)

	// ══════════════════════════════════════════════════════════════
	// ROUTER SETUP
	// ══════════════════════════════════════════════════════════════
	router := gin.Default()
	router.Use(api.SecurityHeaders())

	// Public routes (no auth)
	api.RegisterHealthRoute(router)
	router.POST("/login", auth.LoginHandler)

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(auth.JWTMiddleware())
	api.RegisterOperationRoute(apiGroup, dispatcher)

	// ══════════════════════════════════════════════════════════════
	// START SERVER
	// ══════════════════════════════════════════════════════════════
	if conf.TLSCertFile != "" && conf.TLSKeyFile != "" {
		slog.Info("Starting HTTPS app", "address", conf.ServerAddress)
		err = router.RunTLS(conf.ServerAddress, conf.TLSCertFile, conf.TLSKeyFile)
	} else {
		slog.Info("Starting HTTP app", "address", conf.ServerAddress)
		err = router.Run(conf.ServerAddress)
	}
	if err != nil {
		slog.Error("Server failed to start", "error", err)
		cleanup()
		os.Exit(1)
	}
}
