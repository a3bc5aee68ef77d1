package main

import (
	"context"
	"os"
	"time"

	"bugmaschine/booru-mux/config"
	"bugmaschine/booru-mux/gateway"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/sink"

	"github.com/gin-gonic/gin"
)

const connectTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Invalid configuration: %v", err)
	}
	if err := logging.Setup(cfg.LogDir, "booru-gateway.log", cfg.Debug); err != nil {
		logging.Fatal("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	logging.Info("Starting booru-gateway...")
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	sources, err := cfg.Clients(os.Args[1:]...)
	if err != nil {
		logging.Fatal("Failed to load sources: %v", err)
	}

	cache, err := openCache(cfg)
	if err != nil {
		logging.Fatal("Failed to open asset cache: %v", err)
	}

	srv, err := gateway.New(sources, gateway.Options{
		PublicURL: cfg.Gateway.PublicURL,
		LinkTTL:   cfg.Gateway.LinkTTL,
		Cache:     cache,
	})
	if err != nil {
		logging.Fatal("Failed to create gateway: %v", err)
	}
	if cfg.Gateway.PublicURL == "" {
		logging.Info("GATEWAY_PUBLIC_URL is not set, asset urls are passed through unchanged")
	}

	if err := srv.Run(":" + cfg.Gateway.Port); err != nil {
		logging.Fatal("Router stopped: %v", err)
	}
}

// openCache prefers S3 and falls back to ASSET_DIR. Both unset disables the
// cache.
func openCache(cfg *config.Config) (sink.Sink, error) {
	switch {
	case cfg.S3Enabled():
		logging.Info("Connecting to S3...")
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		s3, err := sink.NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		logging.Info("Caching assets in S3 bucket %v", cfg.S3.Bucket)
		return s3, nil
	case cfg.AssetDir != "":
		logging.Info("Caching assets in %v", cfg.AssetDir)
		return sink.NewDir(cfg.AssetDir)
	default:
		return nil, nil
	}
}
