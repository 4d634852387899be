package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	PublicBaseURL  string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int
	DatabaseURL    string

	// Business settings
	BusinessName      string
	BusinessTimezone  string
	BusinessOpenHour  int
	BusinessCloseHour int
	DepotAddress      string
	DepotLat          float64
	DepotLng          float64
	CallerRegion      string

	// Scheduling
	SlotGranularity   time.Duration
	LookaheadDays     int
	TravelCacheTTL    time.Duration
	DefaultTravelMins int
	AverageSpeedKmh   float64

	// Collaborator timeouts
	LLMTimeout      time.Duration
	CalendarTimeout time.Duration
	MappingTimeout  time.Duration

	// Telnyx voice/SMS
	TelnyxAPIKey        string
	TelnyxWebhookSecret string
	TelnyxFromNumber    string
	TelnyxVoice         string

	// LLM providers
	BedrockModelID string
	GeminiAPIKey   string
	GeminiModelID  string

	// Google Calendar collaborator
	GoogleCalendarID      string
	GoogleCredentialsJSON string

	// Google Maps collaborator
	GoogleMapsAPIKey string

	// Notifications
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	OperatorEmail     string
	OperatorPhone     string

	// AWS
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	UtteranceQueueURL   string
	ArchiveBucket       string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Admin API
	AdminJWTSecret string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", false),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		BusinessName:      getEnv("BUSINESS_NAME", "Fieldline Plumbing"),
		BusinessTimezone:  getEnv("BUSINESS_TZ", "Australia/Sydney"),
		BusinessOpenHour:  getEnvAsInt("BUSINESS_OPEN_HOUR", 8),
		BusinessCloseHour: getEnvAsInt("BUSINESS_CLOSE_HOUR", 17),
		DepotAddress:      getEnv("DEPOT_ADDRESS", "12 Foundry Rd, Seven Hills NSW 2147"),
		DepotLat:          getEnvAsFloat("DEPOT_LAT", -33.7738),
		DepotLng:          getEnvAsFloat("DEPOT_LNG", 150.9346),
		CallerRegion:      strings.ToUpper(strings.TrimSpace(getEnv("CALLER_REGION", "AU"))),

		SlotGranularity:   getEnvAsDuration("SLOT_GRANULARITY", 30*time.Minute),
		LookaheadDays:     getEnvAsInt("LOOKAHEAD_DAYS", 7),
		TravelCacheTTL:    getEnvAsDuration("TRAVEL_CACHE_TTL", time.Hour),
		DefaultTravelMins: getEnvAsInt("DEFAULT_TRAVEL_MINS", 25),
		AverageSpeedKmh:   getEnvAsFloat("AVERAGE_SPEED_KMH", 30),

		LLMTimeout:      getEnvAsDuration("LLM_TIMEOUT", 8*time.Second),
		CalendarTimeout: getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second),
		MappingTimeout:  getEnvAsDuration("MAPPING_TIMEOUT", 5*time.Second),

		TelnyxAPIKey:        getEnv("TELNYX_API_KEY", ""),
		TelnyxWebhookSecret: getEnv("TELNYX_WEBHOOK_SECRET", ""),
		TelnyxFromNumber:    getEnv("TELNYX_FROM_NUMBER", ""),
		TelnyxVoice:         getEnv("TELNYX_VOICE", "female"),

		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "auto"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Fieldline Plumbing"),
		OperatorEmail:     getEnv("OPERATOR_EMAIL", ""),
		OperatorPhone:     getEnv("OPERATOR_PHONE", ""),

		AWSRegion:           getEnv("AWS_REGION", "ap-southeast-2"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		UtteranceQueueURL:   getEnv("UTTERANCE_QUEUE_URL", ""),
		ArchiveBucket:       getEnv("ARCHIVE_BUCKET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
