package config

import (
	"fmt"
	"os"

	hConfig "github.com/michaelyusak/go-helper/config"
	hEntity "github.com/michaelyusak/go-helper/entity"
)

type BinanceConfig struct {
	BaseUrl               string           `json:"base_url"`
	WsScheme              string           `json:"ws_scheme"`
	WsHost                string           `json:"ws_host"`
	WsPath                string           `json:"ws_path"`
	Symbol                string           `json:"symbol"`
	SnapshotDepth         int              `json:"snapshot_depth"`
	MaxMessageSize        int64            `json:"max_message_size"`
	ReconnectInitialDelay hEntity.Duration `json:"reconnect_initial_delay"`
	ReconnectMaxDelay     hEntity.Duration `json:"reconnect_max_delay"`
}

type ExchangeConfig struct {
	Binance BinanceConfig `json:"binance"`
}

type LogConfig struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

type RelayConfig struct {
	Depth            int              `json:"depth"`
	SubscriberBuffer int              `json:"subscriber_buffer"`
	PingInterval     hEntity.Duration `json:"ping_interval"`
	PongTimeout      hEntity.Duration `json:"pong_timeout"`
}

type ServiceConfig struct {
	Port           string           `json:"port"`
	GracefulPeriod hEntity.Duration `json:"graceful_period"`
}

type CorsConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

type AppConfig struct {
	Service  ServiceConfig  `json:"service"`
	Log      LogConfig      `json:"log"`
	Exchange ExchangeConfig `json:"exchange"`
	Relay    RelayConfig    `json:"relay"`
	Cors     CorsConfig     `json:"cors"`
}

func Init() (AppConfig, error) {
	configFilePath := os.Getenv("GO_DEPTH_RELAY_CONFIG")

	var conf AppConfig

	conf, err := hConfig.InitFromJson[AppConfig](configFilePath)
	if err != nil {
		return conf, fmt.Errorf("[config][Init][hConfig.InitFromJson] Failed to init config from json: %w", err)
	}

	return conf, nil
}
