package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // PULSE_DATABASE_URL (required)
	HTTPAddr    string // PULSE_HTTP_ADDR (default ":8080")
	NATSURL     string // PULSE_NATS_URL (optional, empty = no events)
	AuthToken   string // PULSE_AUTH_TOKEN (optional, empty = auth disabled)

	// Snapshot sync settings
	SyncInterval   time.Duration // PULSE_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // PULSE_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // PULSE_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // PULSE_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // PULSE_SYNC_S3_KEY (default "pulseflow/snapshot.jsonl")
	SyncGitRepo    string        // PULSE_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // PULSE_SYNC_GIT_FILE (default "automations.jsonl")
	SyncGitBranch  string        // PULSE_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("PULSE_DATABASE_URL"),
		HTTPAddr:       envOrDefault("PULSE_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("PULSE_NATS_URL"),
		AuthToken:      os.Getenv("PULSE_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("PULSE_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("PULSE_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("PULSE_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("PULSE_SYNC_S3_KEY", "pulseflow/snapshot.jsonl"),
		SyncGitRepo:    os.Getenv("PULSE_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("PULSE_SYNC_GIT_FILE", "automations.jsonl"),
		SyncGitBranch:  envOrDefault("PULSE_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("PULSE_DATABASE_URL is required")
	}

	intervalStr := envOrDefault("PULSE_SYNC_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("PULSE_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
