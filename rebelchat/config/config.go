package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const defaultWelcome = "Hello! I'm your Rebel Energy customer support assistant. How can I help you today?"

type Config struct {
	Port string

	DBDriver   string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string
	JWTSecret  string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	CognitoClientID   string
	CognitoUserPoolID string

	LexBotID      string
	LexBotAliasID string
	LexLocaleID   string

	LambdaEndpoint string
	LambdaAPIKey   string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	RateLimitPerMinute int
	CORSOrigin         string
	LogDir             string
	WelcomeMessage     string
}

func LoadConfig() Config {
	// a missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8000"),

		DBDriver:   getEnv("DB_DRIVER", "memory"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		JWTSecret:  getEnv("JWT_SECRET", "your-jwt-secret"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		CognitoClientID:   getEnv("COGNITO_CLIENT_ID", ""),
		CognitoUserPoolID: getEnv("COGNITO_USER_POOL_ID", ""),

		LexBotID:      getEnv("LEX_BOT_ID", ""),
		LexBotAliasID: getEnv("LEX_BOT_ALIAS_ID", "TSTALIASID"),
		LexLocaleID:   getEnv("LEX_LOCALE_ID", "en_US"),

		LambdaEndpoint: getEnv("LAMBDA_ENDPOINT", getEnv("AWS_LAMBDA_ENDPOINT", "")),
		LambdaAPIKey:   getEnv("LAMBDA_API_KEY", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "voice-utterances"),
		MinIOUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		LogDir:             getEnv("LOG_DIR", "./logs"),
		WelcomeMessage:     getEnv("WELCOME_MESSAGE", defaultWelcome),
	}
}

// UsePostgres reports whether the user and chat tables live in postgres
// rather than in process memory.
func (c Config) UsePostgres() bool {
	return c.DBDriver == "postgres"
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
