package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Autofix   AutofixConfig   `yaml:"autofix" mapstructure:"autofix"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ReconcileConfig holds the arbitration trust thresholds. The defaults are
// tuned to Tesseract's error profile on the shop's page layout; a different
// recognition engine will likely need recalibration.
type ReconcileConfig struct {
	DOMTrust    float64 `yaml:"dom_trust" mapstructure:"dom_trust"`
	VisionTrust float64 `yaml:"vision_trust" mapstructure:"vision_trust"`
}

// AutofixConfig configures the deterministic repair rules.
type AutofixConfig struct {
	// DecimalRepairThreshold: a separator-less price above this value is
	// assumed to have lost its decimal point and is divided by 100.
	DecimalRepairThreshold float64 `yaml:"decimal_repair_threshold" mapstructure:"decimal_repair_threshold"`
}

// OCRConfig configures the recognition engine pool.
type OCRConfig struct {
	Language     string        `yaml:"language" mapstructure:"language"`
	TessdataDir  string        `yaml:"tessdata_dir" mapstructure:"tessdata_dir"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	RecycleAfter int           `yaml:"recycle_after" mapstructure:"recycle_after"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// BatchConfig configures the batch runner.
type BatchConfig struct {
	Size  int           `yaml:"size" mapstructure:"size"`
	Pause time.Duration `yaml:"pause" mapstructure:"pause"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
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
	v.SetEnvPrefix("CATALOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("reconcile.dom_trust", 0.8)
	v.SetDefault("reconcile.vision_trust", 0.6)
	v.SetDefault("autofix.decimal_repair_threshold", 100.0)
	v.SetDefault("ocr.language", "deu")
	v.SetDefault("ocr.pool_size", 4)
	v.SetDefault("ocr.recycle_after", 50)
	v.SetDefault("ocr.timeout", 30*time.Second)
	v.SetDefault("batch.size", 10)
	v.SetDefault("batch.pause", time.Second)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "catalog.db")
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
