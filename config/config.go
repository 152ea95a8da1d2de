package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBDriver  string // postgres or sqlite
	DBName    string
	JWTKey    string
	SaltRound int

	UploadDir string

	// External PDF text extraction (Apache Tika server)
	TikaURL string

	EmailSender string
	Password    string // SMTP Password

	// RAG chunking
	ChunkSize       int
	ChunkOverlap    int
	ChunkSingleMode bool // legacy mode: one capped chunk per course
	ChunkMaxSingle  int

	// Adaptive agent score bands
	ExcellentScore float64
	GoodScore      float64
	PassingScore   float64
	PoorScore      float64

	// Periodic re-indexing schedule (cron spec)
	ReindexCron string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		DBDriver:  getEnv("DB_DRIVER", "postgres"),
		DBName:    getEnv("DB_NAME", "eduquiz.db"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		UploadDir: getEnv("UPLOAD_DIR", "./uploads"),

		TikaURL: getEnv("TIKA_URL", "http://localhost:9998"),

		EmailSender: getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:    getEnv("PASSWORD", "defaultSecret"),

		ChunkSize:       getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 100),
		ChunkSingleMode: getEnvBool("CHUNK_SINGLE_MODE", false),
		ChunkMaxSingle:  getEnvInt("CHUNK_MAX_SINGLE", 1000),

		ExcellentScore: getEnvFloat("EXCELLENT_SCORE", 90.0),
		GoodScore:      getEnvFloat("GOOD_SCORE", 75.0),
		PassingScore:   getEnvFloat("PASSING_SCORE", 70.0),
		PoorScore:      getEnvFloat("POOR_SCORE", 50.0),

		ReindexCron: getEnv("REINDEX_CRON", "@every 30m"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.ChunkOverlap >= AppConfig.ChunkSize {
		log.Printf("Warning: CHUNK_OVERLAP (%d) >= CHUNK_SIZE (%d). Falling back to defaults.", AppConfig.ChunkOverlap, AppConfig.ChunkSize)
		AppConfig.ChunkSize = 500
		AppConfig.ChunkOverlap = 100
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

// getEnvFloat retrieves an environment variable as a float or returns the default float value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Error converting environment variable %s to float: %v", key, err)
		return defaultValue
	}
	return floatValue
}

// getEnvBool retrieves an environment variable as a boolean or returns the default boolean value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
