package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the hazard report service. The map
// palettes and hazard categories live here, not in the lifecycle core, so
// the core carries zero presentation state.
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Media storage configuration
	MediaDir     string
	MediaBaseURL string

	// Admin auth
	JWTSecret string

	// RabbitMQ configuration (optional; the service runs without a broker)
	RabbitMQHost       string
	RabbitMQPort       string
	RabbitMQUser       string
	RabbitMQPassword   string
	RabbitMQExchange   string
	RabbitMQRoutingKey string

	// Submission rate limiting
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// Map viewport defaults
	DefaultViewportLat     float64
	DefaultViewportLng     float64
	DefaultViewportLatSpan float64
	DefaultViewportLngSpan float64
	CitizenLatSpan         float64
	CitizenLngSpan         float64
	AdminMinLatSpan        float64
	AdminMinLngSpan        float64
	ViewportPadding        float64

	// Hazard categories offered to the reporter screen
	HazardTypes []string

	// Marker palettes keyed by severity / status
	SeverityColors map[string]string
	StatusColors   map[string]string
}

// Load loads configuration from environment variables.
func Load() *Config {
	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "oceanwatch"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		// Media storage defaults
		MediaDir:     getEnv("MEDIA_DIR", "./media"),
		MediaBaseURL: getEnv("MEDIA_BASE_URL", "http://localhost:8080/media"),

		// Admin auth defaults
		JWTSecret: getEnv("JWT_SECRET", ""),

		// RabbitMQ defaults
		RabbitMQHost:       getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort:       getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:       getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword:   getEnv("RABBITMQ_PASSWORD", "guest"),
		RabbitMQExchange:   getEnv("RABBITMQ_EXCHANGE", "oceanwatch"),
		RabbitMQRoutingKey: getEnv("RABBITMQ_MODERATION_ROUTING_KEY", "moderation.events"),

		// Rate limiting defaults
		SubmitRateLimit:  getIntEnv("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: getDurationEnv("SUBMIT_RATE_WINDOW", time.Minute),

		// Viewport defaults. The fallback viewport is the documented
		// default used when no position and no located reports exist.
		DefaultViewportLat:     getFloatEnv("DEFAULT_VIEWPORT_LAT", 0),
		DefaultViewportLng:     getFloatEnv("DEFAULT_VIEWPORT_LNG", 0),
		DefaultViewportLatSpan: getFloatEnv("DEFAULT_VIEWPORT_LAT_SPAN", 5.0),
		DefaultViewportLngSpan: getFloatEnv("DEFAULT_VIEWPORT_LNG_SPAN", 5.0),
		CitizenLatSpan:         getFloatEnv("CITIZEN_LAT_SPAN", 0.0922),
		CitizenLngSpan:         getFloatEnv("CITIZEN_LNG_SPAN", 0.0421),
		AdminMinLatSpan:        getFloatEnv("ADMIN_MIN_LAT_SPAN", 5.0),
		AdminMinLngSpan:        getFloatEnv("ADMIN_MIN_LNG_SPAN", 5.0),
		ViewportPadding:        getFloatEnv("VIEWPORT_PADDING", 1.2),

		HazardTypes: getListEnv("HAZARD_TYPES", []string{
			"Oil Spill",
			"Debris",
			"Dangerous Current",
			"Algae Bloom",
			"Chemical Leak",
			"Illegal Dumping",
			"Marine Life Disturbance",
			"Other",
		}),

		SeverityColors: map[string]string{
			"high":     "red",
			"critical": "red",
			"medium":   "orange",
			"low":      "green",
			"unknown":  "blue",
		},
		StatusColors: map[string]string{
			"pending":   "#ffc107",
			"validated": "#28a745",
			"resolved":  "#17a2b8",
			"false":     "#dc3545",
		},
	}

	return config
}

// GetAMQPURL builds the broker URL from the RabbitMQ settings.
func (c *Config) GetAMQPURL() string {
	return "amqp://" + c.RabbitMQUser + ":" + c.RabbitMQPassword + "@" + c.RabbitMQHost + ":" + c.RabbitMQPort + "/"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable or returns a default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv gets a comma-separated list environment variable or returns a
// default value
func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
