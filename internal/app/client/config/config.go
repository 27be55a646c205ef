package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"equilibria/internal/domain/insights"
	"equilibria/internal/domain/record"
	"equilibria/internal/domain/recovery"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	// MemoryDataPath включает хранилище в памяти без записи на диск
	MemoryDataPath = ":memory:"
)

const (
	defaultServerAddress  = "localhost:8000"
	defaultLogLevel       = "info"
	defaultEnv            = EnvLocal
	defaultConfigDir      = ".equilibria"
	defaultDataFile       = "equilibria.db"
	defaultTokenFile      = "token"
	defaultDeviceKeyFile  = ".device.key"
	defaultSyncTimeout    = 15
	defaultDrainBatchSize = 50
	defaultMaxAttempts    = 5
)

type Config struct {
	Env           string
	ServerAddress string
	EnableTLS     bool
	LogLevel      string
	ConfigDir     string
	DataPath      string
	TokenPath     string
	DeviceKeyPath string

	SyncTimeout     time.Duration
	SyncOnStart     bool
	DrainBatchSize  int
	MaxSyncAttempts int

	RecoveryWeights recovery.Weights
	RiskThresholds  insights.Thresholds
	StreamKeys      record.KeyTable
}

// Options - параметры загрузки
type Options struct {
	// ConfigFile - явный путь к config.yaml (флаг --config)
	ConfigFile string
	// EnvFile - путь к .env, по умолчанию .env в текущем каталоге
	EnvFile string
}

// Load загружает конфигурацию клиента: .env, переменные окружения, config.yaml
func Load(opts Options) (*Config, error) {
	envPath := opts.EnvFile
	if envPath == "" {
		envPath = ".env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
	}

	cfg := &Config{
		Env:           v.GetString("APP_ENV"),
		ServerAddress: v.GetString("SERVER_ADDRESS"),
		EnableTLS:     v.GetBool("ENABLE_TLS"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		ConfigDir:     configDir,
		DataPath:      resolvePath(configDir, v.GetString("DATA_PATH"), defaultDataFile),
		TokenPath:     resolvePath(configDir, v.GetString("TOKEN_PATH"), defaultTokenFile),
		DeviceKeyPath: resolvePath(configDir, v.GetString("DEVICE_KEY_PATH"), defaultDeviceKeyFile),

		SyncTimeout:     time.Duration(v.GetInt("SYNC_TIMEOUT_SECONDS")) * time.Second,
		SyncOnStart:     v.GetBool("SYNC_ON_START"),
		DrainBatchSize:  v.GetInt("DRAIN_BATCH_SIZE"),
		MaxSyncAttempts: v.GetInt("MAX_SYNC_ATTEMPTS"),

		RecoveryWeights: recovery.Weights{
			Sleep:    v.GetFloat64("RECOVERY_WEIGHT_SLEEP"),
			Soreness: v.GetFloat64("RECOVERY_WEIGHT_SORENESS"),
			Energy:   v.GetFloat64("RECOVERY_WEIGHT_ENERGY"),
			HRV:      v.GetFloat64("RECOVERY_WEIGHT_HRV"),
		},
		RiskThresholds: insights.Thresholds{
			HighBelow:       v.GetFloat64("RISK_HIGH_BELOW"),
			MediumBelow:     v.GetFloat64("RISK_MEDIUM_BELOW"),
			MinWorkouts:     v.GetInt("RISK_MIN_WORKOUTS"),
			HighVolumeAbove: v.GetInt("RISK_HIGH_VOLUME_ABOVE"),
		},
		StreamKeys: record.KeyTable{
			record.StreamCheckIns:  v.GetString("STREAM_KEY_CHECKINS"),
			record.StreamWorkouts:  v.GetString("STREAM_KEY_WORKOUTS"),
			record.StreamSessions:  v.GetString("STREAM_KEY_SESSIONS"),
			record.StreamWearables: v.GetString("STREAM_KEY_WEARABLES"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	return cfg, nil
}

// MustLoad загружает конфигурацию и паникует при ошибке
func MustLoad(opts Options) *Config {
	cfg, err := Load(opts)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	keys := record.DefaultKeyTable()
	weights := recovery.DefaultWeights()
	thresholds := insights.DefaultThresholds()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("LOG_LEVEL", defaultLogLevel)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("DATA_PATH", "")
	v.SetDefault("TOKEN_PATH", "")
	v.SetDefault("DEVICE_KEY_PATH", "")
	v.SetDefault("SYNC_TIMEOUT_SECONDS", defaultSyncTimeout)
	v.SetDefault("SYNC_ON_START", false)
	v.SetDefault("DRAIN_BATCH_SIZE", defaultDrainBatchSize)
	v.SetDefault("MAX_SYNC_ATTEMPTS", defaultMaxAttempts)

	v.SetDefault("RECOVERY_WEIGHT_SLEEP", weights.Sleep)
	v.SetDefault("RECOVERY_WEIGHT_SORENESS", weights.Soreness)
	v.SetDefault("RECOVERY_WEIGHT_ENERGY", weights.Energy)
	v.SetDefault("RECOVERY_WEIGHT_HRV", weights.HRV)

	v.SetDefault("RISK_HIGH_BELOW", thresholds.HighBelow)
	v.SetDefault("RISK_MEDIUM_BELOW", thresholds.MediumBelow)
	v.SetDefault("RISK_MIN_WORKOUTS", thresholds.MinWorkouts)
	v.SetDefault("RISK_HIGH_VOLUME_ABOVE", thresholds.HighVolumeAbove)

	v.SetDefault("STREAM_KEY_CHECKINS", keys[record.StreamCheckIns])
	v.SetDefault("STREAM_KEY_WORKOUTS", keys[record.StreamWorkouts])
	v.SetDefault("STREAM_KEY_SESSIONS", keys[record.StreamSessions])
	v.SetDefault("STREAM_KEY_WEARABLES", keys[record.StreamWearables])
}

// resolvePath размещает относительные пути внутри каталога конфигурации
func resolvePath(configDir, value, fallback string) string {
	if value == MemoryDataPath {
		return value
	}
	if value == "" {
		value = fallback
	}
	if filepath.IsAbs(value) || strings.HasPrefix(value, "."+string(filepath.Separator)) {
		return value
	}
	return filepath.Join(configDir, value)
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("неизвестное окружение app_env: %q", c.Env)
	}
	if c.SyncTimeout <= 0 {
		return fmt.Errorf("sync_timeout_seconds должен быть больше нуля")
	}
	if c.DrainBatchSize <= 0 {
		return fmt.Errorf("drain_batch_size должен быть больше нуля")
	}
	if c.MaxSyncAttempts <= 0 {
		return fmt.Errorf("max_sync_attempts должен быть больше нуля")
	}
	if err := c.RecoveryWeights.Validate(); err != nil {
		return err
	}
	if err := c.RiskThresholds.Validate(); err != nil {
		return err
	}
	return c.StreamKeys.Validate()
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}

// InMemory сообщает, что данные не сохраняются между запусками
func (c *Config) InMemory() bool {
	return c.DataPath == MemoryDataPath
}

// WriteDefault сохраняет config.yaml с текущими значениями в каталог конфигурации.
// Существующий файл не перезаписывается, created == false.
func (c *Config) WriteDefault() (path string, created bool, err error) {
	path = filepath.Join(c.ConfigDir, "config.yaml")

	v := viper.New()
	v.Set("app_env", c.Env)
	v.Set("server_address", c.ServerAddress)
	v.Set("enable_tls", c.EnableTLS)
	v.Set("log_level", c.LogLevel)
	v.Set("sync_timeout_seconds", int(c.SyncTimeout/time.Second))
	v.Set("sync_on_start", c.SyncOnStart)
	v.Set("drain_batch_size", c.DrainBatchSize)
	v.Set("max_sync_attempts", c.MaxSyncAttempts)

	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return path, false, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	err = v.SafeWriteConfigAs(path)
	var exists viper.ConfigFileAlreadyExistsError
	if errors.As(err, &exists) {
		return path, false, nil
	}
	if err != nil {
		return path, false, fmt.Errorf("ошибка записи конфигурации: %w", err)
	}
	return path, true, nil
}
