package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server              ServerConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Kafka               KafkaConfig
	Mongo               MongoConfig
	NotificationService ServiceConfig
	Admin               AdminConfig
	Session             SessionConfig
	Currency            CurrencyConfig
	Features            FeatureFlags
	Log                 LogConfig
}

type ServerConfig struct {
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PublicBaseURL string
	Mode          string
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	RunMigrations bool
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	TTL        time.Duration
	SessionTTL time.Duration
}

type KafkaConfig struct {
	Brokers         []string
	OrdersTopic     string
	FulfilmentTopic string
	ConsumerGroup   string
}

type MongoConfig struct {
	URI      string
	Database string
	Bucket   string
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

// AdminConfig holds the back-office credentials checked with HTTP basic auth.
type AdminConfig struct {
	Username   string
	AccessCode string
}

type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

type CurrencyConfig struct {
	Default string
}

type FeatureFlags struct {
	EnableProductCaching     bool
	EnableOrderEvents        bool
	EnableSessionPersistence bool
	EnableNotifications      bool
	EnableFulfilmentConsumer bool
	EnableImageStore         bool
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:   time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:  time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			PublicBaseURL: strings.TrimRight(getEnvString("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
			Mode:          getEnvString("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Host:          getEnvString("DB_HOST", "localhost"),
			Port:          getEnvInt("DB_PORT", 5432),
			User:          getEnvString("DB_USER", "acme"),
			Password:      getEnvString("DB_PASSWORD", "acme"),
			Name:          getEnvString("DB_NAME", "acme_storefront"),
			SSLMode:       getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:   time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
			RunMigrations: getEnvBool("DB_RUN_MIGRATIONS", true),
		},
		Redis: RedisConfig{
			Host:       getEnvString("REDIS_HOST", "localhost"),
			Port:       getEnvInt("REDIS_PORT", 6379),
			Password:   getEnvString("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			TTL:        time.Duration(getEnvInt("REDIS_CACHE_TTL", 300)) * time.Second,
			SessionTTL: time.Duration(getEnvInt("REDIS_SESSION_TTL", 7*24*3600)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:     getEnvString("KAFKA_ORDERS_TOPIC", "storefront.orders"),
			FulfilmentTopic: getEnvString("KAFKA_FULFILMENT_TOPIC", "storefront.fulfilment"),
			ConsumerGroup:   getEnvString("KAFKA_CONSUMER_GROUP", "storefront-service"),
		},
		Mongo: MongoConfig{
			URI:      getEnvString("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnvString("MONGO_DB_NAME", "storefront"),
			Bucket:   getEnvString("MONGO_IMAGE_BUCKET", "product-images"),
		},
		NotificationService: ServiceConfig{
			BaseURL: getEnvString("NOTIFICATION_SERVICE_URL", "http://localhost:8085"),
			Timeout: time.Duration(getEnvInt("NOTIFICATION_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("NOTIFICATION_SERVICE_API_KEY", ""),
		},
		Admin: AdminConfig{
			Username:   getEnvString("ADMIN_USERNAME", "admin"),
			AccessCode: getEnvString("ADMIN_ACCESS_CODE", ""),
		},
		Session: SessionConfig{
			CookieName: getEnvString("SESSION_COOKIE_NAME", "sid"),
			MaxAge:     time.Duration(getEnvInt("SESSION_MAX_AGE", 7*24*3600)) * time.Second,
			Secure:     getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		Currency: CurrencyConfig{
			Default: getEnvString("DEFAULT_CURRENCY", "EUR"),
		},
		Features: FeatureFlags{
			EnableProductCaching:     getEnvBool("FEATURE_PRODUCT_CACHING", true),
			EnableOrderEvents:        getEnvBool("FEATURE_ORDER_EVENTS", true),
			EnableSessionPersistence: getEnvBool("FEATURE_SESSION_PERSISTENCE", false),
			EnableNotifications:      getEnvBool("FEATURE_NOTIFICATIONS", true),
			EnableFulfilmentConsumer: getEnvBool("FEATURE_FULFILMENT_CONSUMER", true),
			EnableImageStore:         getEnvBool("FEATURE_IMAGE_STORE", true),
		},
		Log: LogConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
