package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration settings for the track recorder service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server.
// - HTTPAddr: The listen address of the session API.
// - Source: Which transport delivers position fixes.
// - GeometryBackend: The geometry backend (spherical, postgis).
// - MapsAPIKey: The Google Maps key for static map rendering, empty disables rendering.
// - MapsRateLimit: Static Maps requests per second.
// - Fix: Options passed to the location source subscription.
// - Database: Configuration settings for the PostGIS database.
type Config struct {
	Env             string
	Port            int
	HTTPAddr        string
	Source          SourceConfig
	GeometryBackend string
	MapsAPIKey      string
	MapsRateLimit   int
	MapSize         string
	ExportDir       string
	Fix             FixConfig
	Database        PostgresConfig
}

// SourceConfig selects and addresses the location source.
type SourceConfig struct {
	Type         string // feed, mqtt or nats
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	NATSURL      string
	NATSSubject  string
}

// FixConfig mirrors the geolocation watch options.
type FixConfig struct {
	Timeout      time.Duration
	MaximumAge   time.Duration
	HighAccuracy bool
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// MustLoad reads the configuration from the environment and, when PATHFINDER_CONFIG_FILE
// is set, from that file. Environment variables take precedence over the file.
func MustLoad() *Config {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file := os.Getenv("PATHFINDER_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			panic(fmt.Sprintf("failed to read config file %s: %v", file, err))
		}
	}

	healthPort, err := strconv.Atoi(v.GetString("PATHFINDER_HEALTH_PORT"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	timeout, err := time.ParseDuration(v.GetString("PATHFINDER_FIX_TIMEOUT"))
	if err != nil {
		panic("failed to parse fix timeout from configuration")
	}

	maxAge, err := time.ParseDuration(v.GetString("PATHFINDER_FIX_MAX_AGE"))
	if err != nil {
		panic("failed to parse fix maximum age from configuration")
	}

	mapsRateLimit, err := strconv.Atoi(v.GetString("PATHFINDER_MAPS_RATE_LIMIT"))
	if err != nil {
		panic("failed to parse maps rate limit from configuration, must be an integer types")
	}

	highAccuracy, err := strconv.ParseBool(v.GetString("PATHFINDER_HIGH_ACCURACY"))
	if err != nil {
		panic("failed to parse high accuracy flag from configuration, must be a boolean")
	}

	return &Config{
		Env:      v.GetString("PATHFINDER_ENV"),
		Port:     healthPort,
		HTTPAddr: v.GetString("PATHFINDER_HTTP_ADDR"),
		Source: SourceConfig{
			Type:         v.GetString("PATHFINDER_SOURCE_TYPE"),
			MQTTBroker:   v.GetString("PATHFINDER_MQTT_BROKER"),
			MQTTTopic:    v.GetString("PATHFINDER_MQTT_TOPIC"),
			MQTTClientID: v.GetString("PATHFINDER_MQTT_CLIENT_ID"),
			NATSURL:      v.GetString("PATHFINDER_NATS_URL"),
			NATSSubject:  v.GetString("PATHFINDER_NATS_SUBJECT"),
		},
		GeometryBackend: v.GetString("PATHFINDER_GEOMETRY_BACKEND"),
		MapsAPIKey:      v.GetString("PATHFINDER_MAPS_API_KEY"),
		MapsRateLimit:   mapsRateLimit,
		MapSize:         v.GetString("PATHFINDER_MAP_SIZE"),
		ExportDir:       v.GetString("PATHFINDER_EXPORT_DIR"),
		Fix: FixConfig{
			Timeout:      timeout,
			MaximumAge:   maxAge,
			HighAccuracy: highAccuracy,
		},
		Database: PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PATHFINDER_ENV", "production")
	v.SetDefault("PATHFINDER_HEALTH_PORT", "8080")
	v.SetDefault("PATHFINDER_HTTP_ADDR", ":8000")
	v.SetDefault("PATHFINDER_SOURCE_TYPE", "feed")
	v.SetDefault("PATHFINDER_MQTT_BROKER", "")
	v.SetDefault("PATHFINDER_MQTT_TOPIC", "pathfinder/fixes")
	v.SetDefault("PATHFINDER_MQTT_CLIENT_ID", "pathfinder")
	v.SetDefault("PATHFINDER_NATS_URL", "")
	v.SetDefault("PATHFINDER_NATS_SUBJECT", "pathfinder.fixes")
	v.SetDefault("PATHFINDER_GEOMETRY_BACKEND", "spherical")
	v.SetDefault("PATHFINDER_MAPS_API_KEY", "")
	v.SetDefault("PATHFINDER_MAPS_RATE_LIMIT", "10")
	v.SetDefault("PATHFINDER_MAP_SIZE", "640x640")
	v.SetDefault("PATHFINDER_EXPORT_DIR", "exports")
	v.SetDefault("PATHFINDER_FIX_TIMEOUT", "10s")
	v.SetDefault("PATHFINDER_FIX_MAX_AGE", "0s")
	v.SetDefault("PATHFINDER_HIGH_ACCURACY", "true")
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USERNAME", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "")
}
