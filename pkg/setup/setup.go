// Package setup wires the dispatcher and its collaborators from configuration.
package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"lwm2mbridge/pkg/coiote"
	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/credentials"
	"lwm2mbridge/pkg/dispatcher"
	"lwm2mbridge/pkg/operation"
	"lwm2mbridge/pkg/resolver"
)

// NewLogger returns a JSON slog logger writing to w at the configured level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Dispatcher validates cfg and builds a ready dispatcher. The returned cleanup
// releases the optional Redis connection.
func Dispatcher(ctx context.Context, cfg *config.Config) (*dispatcher.Dispatcher, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	provider, err := credentials.NewProvider(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	auth, err := credentials.Authenticator(ctx, provider, cfg.AuthMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up Coiote DM authentication: %w", err)
	}

	client := coiote.NewClient(cfg.RestBaseURI(), auth, cfg.RequestTimeout())
	cleanup := func() {}

	var res resolver.Resolver = resolver.Passthrough{}
	if cfg.ResolveDeviceID {
		var cache resolver.Cache
		if cfg.RedisURL != "" {
			redisCache, err := resolver.NewRedisCache(ctx, cfg.RedisURL)
			if err != nil {
				return nil, nil, err
			}
			cache = redisCache
			cleanup = func() { _ = redisCache.Close() }
			slog.Info("Device id cache enabled", "component", "Setup", "ttl", cfg.DeviceCacheTTL().String())
		}
		res = resolver.NewLookup(client, cache, cfg.DeviceCacheTTL())
	}

	builder := operation.NewBuilder(cfg.TemplatePrefix, cfg.TemplateSuffix)
	slog.Info("Dispatcher ready", "component", "Setup",
		"auth_mode", cfg.AuthMode,
		"rest_uri", cfg.RestBaseURI(),
		"template_example", builder.TemplateName("read"),
		"resolve_device_id", cfg.ResolveDeviceID,
	)

	return dispatcher.New(client, builder, res), cleanup, nil
}
