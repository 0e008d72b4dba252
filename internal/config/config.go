package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Geo     GeoConfig     `yaml:"geo" mapstructure:"geo"`
	Models  ModelsConfig  `yaml:"models" mapstructure:"models"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Geocode GeocodeConfig `yaml:"geocode" mapstructure:"geocode"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// GeoConfig locates the boundary shapefiles and their identifying attributes.
type GeoConfig struct {
	PrecinctShapefile string `yaml:"precinct_shapefile" mapstructure:"precinct_shapefile"`
	PrecinctField     string `yaml:"precinct_field" mapstructure:"precinct_field"`
	BoroughShapefile  string `yaml:"borough_shapefile" mapstructure:"borough_shapefile"`
	BoroughField      string `yaml:"borough_field" mapstructure:"borough_field"`
}

// ModelsConfig locates the model artifacts and tunes the stage-1 gate.
type ModelsConfig struct {
	Stage1Path     string  `yaml:"stage1_path" mapstructure:"stage1_path"`
	Stage2Path     string  `yaml:"stage2_path" mapstructure:"stage2_path"`
	CrimeThreshold float64 `yaml:"crime_threshold" mapstructure:"crime_threshold"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// StoreConfig configures the prediction audit store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GeocodeConfig configures the Nominatim client.
type GeocodeConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SAFETYSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("geo.precinct_shapefile", "./shapes/police_precincts.shp")
	v.SetDefault("geo.precinct_field", "precinct")
	v.SetDefault("geo.borough_shapefile", "./borough/nybb.shp")
	v.SetDefault("geo.borough_field", "BoroName")
	v.SetDefault("models.stage1_path", "./model/stage1_safety.json")
	v.SetDefault("models.stage2_path", "./model/crime_type.json")
	v.SetDefault("models.crime_threshold", 0.5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.path", "safetyscope.db")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.rate_per_sec", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
