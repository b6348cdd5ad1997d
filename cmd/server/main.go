// Package main is the entry point for the streamhub user API server.
//
// main stays minimal: read the environment, assemble the immutable config
// structs, hand them to the server package. All signing secrets and storage
// credentials are loaded exactly once here; nothing reads the environment
// after startup.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/streamhub/internal/auth"
	"github.com/sakif/streamhub/internal/media"
	"github.com/sakif/streamhub/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/streamhub.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Two distinct secrets: a leaked access secret cannot mint refresh
	// tokens and vice versa. Generate with: openssl rand -hex 32
	tokenCfg := auth.TokenConfig{
		AccessSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		AccessTTL:     durationEnv(logger, "ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		RefreshTTL:    durationEnv(logger, "REFRESH_TOKEN_TTL", 7*24*time.Hour),
	}

	mediaCfg := media.S3Config{
		Region:         os.Getenv("S3_REGION"),
		Bucket:         os.Getenv("S3_BUCKET"),
		AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		SecretKey:      os.Getenv("S3_SECRET_KEY"),
		Endpoint:       os.Getenv("S3_ENDPOINT"),
		PublicBaseURL:  os.Getenv("S3_PUBLIC_BASE_URL"),
		ForcePathStyle: os.Getenv("S3_FORCE_PATH_STYLE") == "true",
	}

	cfg := server.Config{
		Port:   port,
		DBPath: dbPath,
		Tokens: tokenCfg,
		Media:  mediaCfg,
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// durationEnv parses a duration env var like "15m" or "168h", falling back
// to the default when unset. A present-but-unparsable value is fatal rather
// than silently shortened or lengthened.
func durationEnv(logger *slog.Logger, name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Error("invalid duration", slog.String("var", name), slog.String("value", v))
		os.Exit(1)
	}
	return d
}
