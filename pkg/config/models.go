package config

import "time"

type Config struct {
	Server    ServerConfig
	Transport TransportConfig
	Store     StoreConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Address         string
	Auth            AuthConfig
	ConnectionLimit ConnectionLimitConfig `mapstructure:"connectionLimit"`
}

type AuthConfig struct {
	// When disabled, any client may open a connection. Room membership is
	// never access-controlled either way.
	Enabled   bool
	JWTSecret string `mapstructure:"jwtSecret"`
}

type ConnectionLimitConfig struct {
	MaxPerIP int    `mapstructure:"maxPerIP"`
	Mode     string `mapstructure:"mode"` // "reject" or "cycle"
}

type TransportConfig struct {
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
	SendBuffer  int           `mapstructure:"sendBuffer"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // only "memory" is built in
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}
