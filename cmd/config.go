package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/adapters/push"
	passstore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/pass"
	redisstore "github.com/bnema/atlas-crm-cli/internal/adapters/storage/redis"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configDirName    = ".atlas"
	configFileName   = "config"
	envPrefix        = "ATLAS"
	defaultServerURL = "http://localhost:8000"
	defaultTimeout   = 30 * time.Second
)

const (
	backendFile  = "file"
	backendPass  = "pass"
	backendChain = "chain"
	backendRedis = "redis"
)

type config struct {
	ServerURL         string
	StorageBackend    string
	StorageDir        string
	PassPrefix        string
	Redis             redisstore.Options
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	HTTPTimeout       time.Duration
	PreferencesPath   string
	Verbose           bool
}

// loadConfig resolves settings from flags, ATLAS_* variables (optionally
// seeded from a .env file) and ~/.atlas/config.toml, in that order.
func loadConfig(home string, cmd *cobra.Command) (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	configDir := filepath.Join(home, configDirName)

	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.url", defaultServerURL)
	v.SetDefault("storage.backend", backendFile)
	v.SetDefault("storage.dir", filepath.Join(configDir, "session"))
	v.SetDefault("storage.pass_prefix", passstore.DefaultPrefix)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key_prefix", redisstore.DefaultKeyPrefix)
	v.SetDefault("push.reconnect_delay", push.DefaultReconnectDelay)
	v.SetDefault("push.max_reconnect_delay", time.Duration(0))
	v.SetDefault("http.timeout", defaultTimeout)
	v.SetDefault("preferences.path", filepath.Join(configDir, "preferences.toml"))

	if cmd != nil {
		for key, name := range map[string]string{
			"server.url":   "server",
			"http.timeout": "timeout",
			"log.verbose":  "verbose",
		} {
			if flag := cmd.Flags().Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := config{
		ServerURL:      strings.TrimRight(strings.TrimSpace(v.GetString("server.url")), "/"),
		StorageBackend: strings.ToLower(strings.TrimSpace(v.GetString("storage.backend"))),
		StorageDir:     v.GetString("storage.dir"),
		PassPrefix:     v.GetString("storage.pass_prefix"),
		Redis: redisstore.Options{
			Addr:      v.GetString("redis.addr"),
			Username:  v.GetString("redis.username"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
			TTL:       v.GetDuration("redis.ttl"),
		},
		ReconnectDelay:    v.GetDuration("push.reconnect_delay"),
		MaxReconnectDelay: v.GetDuration("push.max_reconnect_delay"),
		HTTPTimeout:       v.GetDuration("http.timeout"),
		PreferencesPath:   v.GetString("preferences.path"),
		Verbose:           v.GetBool("log.verbose"),
	}

	if cfg.ServerURL == "" {
		return config{}, errors.New("server.url is empty")
	}
	switch cfg.StorageBackend {
	case backendFile, backendPass, backendChain, backendRedis:
	default:
		return config{}, fmt.Errorf("unknown storage.backend %q (want file, pass, chain or redis)", cfg.StorageBackend)
	}

	return cfg, nil
}

// reconnectPolicy is fixed unless a max delay is configured, in which case
// the delay doubles up to that cap.
func (c config) reconnectPolicy() push.ReconnectPolicy {
	if c.MaxReconnectDelay > c.ReconnectDelay {
		return push.ReconnectPolicy{Initial: c.ReconnectDelay, Max: c.MaxReconnectDelay, Multiplier: 2}
	}
	return push.FixedReconnect(c.ReconnectDelay)
}
