package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig содержит сетевые настройки сервера.
type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

// StorageConfig выбирает и настраивает бэкенд хранения партий.
// Backend: memory | badger | maria | mongo.
type StorageConfig struct {
	Backend  string      `yaml:"backend"`
	DataPath string      `yaml:"data_path"` // каталог BadgerDB
	Maria    MariaConfig `yaml:"maria"`
	Mongo    MongoConfig `yaml:"mongo"`
}

// MariaConfig содержит настройки подключения к MariaDB.
type MariaConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MongoConfig содержит настройки подключения к MongoDB.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RedisConfig настраивает кеш снапшотов. Пустой Addr отключает кеш.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// EventBusConfig настраивает шину событий. Пустой URL означает in-memory шину.
type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// AuthConfig содержит настройки аутентификации REST API.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`     // base64; пустой — случайный ключ
	AdminPassword string `yaml:"admin_password"` // пароль учетки admin по умолчанию
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "TETRIS_REST_PORT", 8088)
}

// GetBackend возвращает бэкенд хранения с приоритетом: config -> env -> memory
func (s *StorageConfig) GetBackend() string {
	if s.Backend != "" {
		return s.Backend
	}
	if env := os.Getenv("TETRIS_STORAGE_BACKEND"); env != "" {
		return env
	}
	return "memory"
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV TETRIS_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("TETRIS_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
