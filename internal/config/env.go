package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	GenModel     string
	Port         string
	Env          string
	RedisAddr    string

	// Ingestion knobs. ChunkSize and MinViableTextLen are the single
	// source of truth for every route that chunks or validates text.
	ChunkSize        int
	MinViableTextLen int
	EmbedBatchSize   int
	EmbedConcurrency int
	RetrievalTopK    int
	OCRScale         int
	OCRLanguage      string

	IngestTimeout     time.Duration
	QueryTimeout      time.Duration
	AnswerCacheTTL    time.Duration
	FullAnswerCharCap int
}

// LoadConfig loads the environment variables and returns config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "xposiguide-docs"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		EmbedDim:     getEnvInt("EMBED_DIM", 768),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		Port:         getEnv("PORT", "8080"),
		Env:          getEnv("APP_ENV", "development"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),

		ChunkSize:        getEnvInt("CHUNK_SIZE", 1600),
		MinViableTextLen: getEnvInt("MIN_VIABLE_TEXT_LEN", 10),
		EmbedBatchSize:   getEnvInt("EMBED_BATCH_SIZE", 16),
		EmbedConcurrency: getEnvInt("EMBED_CONCURRENCY", 4),
		RetrievalTopK:    getEnvInt("RETRIEVAL_TOP_K", 5),
		OCRScale:         getEnvInt("OCR_SCALE", 3),
		OCRLanguage:      getEnv("OCR_LANGUAGE", "eng"),

		IngestTimeout:     getEnvDuration("INGEST_TIMEOUT", 10*time.Minute),
		QueryTimeout:      getEnvDuration("QUERY_TIMEOUT", 60*time.Second),
		AnswerCacheTTL:    getEnvDuration("ANSWER_CACHE_TTL", 10*time.Minute),
		FullAnswerCharCap: getEnvInt("FULL_ANSWER_CHAR_CAP", 48000),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
