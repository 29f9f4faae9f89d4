package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bird-map-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	DatasetPath   string
	DedupRadiusKM float64

	// Geocoding search proxy configuration.
	GeocodeEnabled   bool
	GeocodeBaseURL   string
	GeocodeUserAgent string
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Live sighting ingest configuration.
	IngestEnabled bool
	KafkaBrokers  []string
	KafkaTopic    string
	KafkaGroupID  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	geocodeTimeout, err := parseDurationEnv("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	dedupRadius, err := parseDedupRadius()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatasetPath:   envOrDefault("DATASET_PATH", "data/observations.csv"),
		DedupRadiusKM: dedupRadius,

		GeocodeEnabled:   envOrDefault("GEOCODE_ENABLED", "true") == "true",
		GeocodeBaseURL:   envOrDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent: envOrDefault("GEOCODE_USER_AGENT", "bird-map-service/1.0"),
		GeocodeTimeout:   geocodeTimeout,
		GeocodeCacheSize: parseGeocodeCacheSize(),

		IngestEnabled: os.Getenv("KAFKA_INGEST_ENABLED") == "true",
		KafkaBrokers:  parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:    envOrDefault("KAFKA_TOPIC", "sighting-reports"),
		KafkaGroupID:  envOrDefault("KAFKA_GROUP_ID", "bird-map-service"),
	}

	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}
	if cfg.IngestEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_INGEST_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_INGEST_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func parseDedupRadius() (float64, error) {
	s := os.Getenv("DEDUP_RADIUS_KM")
	if s == "" {
		return domain.DedupRadiusKM, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, errors.New("invalid DEDUP_RADIUS_KM")
	}
	return v, nil
}

func parseGeocodeCacheSize() int {
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
