package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config содержит все настройки ERP Service
// Включает конфигурацию для HTTP сервера, PostgreSQL, Redis, MongoDB, Kafka и JWT
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Rates    RatesConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8080)
}

// DatabaseConfig - настройки подключения к PostgreSQL
// Хранит справочники, цены, соглашения с поставщиками и курсы валют
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - настройки подключения к Redis
// Используется для кеширования курсов валют и справочных выборок
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MongoConfig - настройки подключения к MongoDB
// Хранит заметки пользователей к страницам
type MongoConfig struct {
	URI    string
	DBName string
}

// KafkaConfig - настройки Kafka для событий изменения цен
type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик для событий PRICE_SUPERSEDED
}

// JWTConfig - настройки для проверки JWT токенов
// Токены выдает внешний сервис аутентификации
type JWTConfig struct {
	Secret string
}

// RatesConfig - настройки обновления курсов валют
type RatesConfig struct {
	RefreshSchedule string // Cron расписание обновления кеша курсов
	CacheTTLMinutes int    // TTL кеша курсов в Redis
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level string // debug, info, warn, error
}

// Load загружает конфигурацию из переменных окружения
// Файл .env подхватывается если присутствует (локальная разработка)
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("RATES_CACHE_TTL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATES_CACHE_TTL_MINUTES value: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "erp"),
			Password: getEnv("DB_PASSWORD", "erp"),
			DBName:   getEnv("DB_NAME", "erp_service"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Mongo: MongoConfig{
			URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			DBName: getEnv("MONGO_DB", "erp_notes"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "price_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Rates: RatesConfig{
			// Каждые 30 минут, как TTL кеша
			RefreshSchedule: getEnv("RATES_REFRESH_SCHEDULE", "*/30 * * * *"),
			CacheTTLMinutes: cacheTTL,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
