package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirsle/configdir"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	tetris "github.com/jauhararifin/tetris-engine"
)

const (
	AppName   = "tetris-engine"
	FileName  = "config.yaml"
	EnvPrefix = "TETRIS"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Game   GameConfig   `mapstructure:"game" yaml:"game"`
	Store  StoreConfig  `mapstructure:"store" yaml:"store"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Player PlayerConfig `mapstructure:"player" yaml:"player"`
}

type GameConfig struct {
	Mode          tetris.Mode `mapstructure:"mode" yaml:"mode"`
	Width         int         `mapstructure:"width" yaml:"width"`
	Height        int         `mapstructure:"height" yaml:"height"`
	Preview       int         `mapstructure:"preview" yaml:"preview"`
	Seed          int64       `mapstructure:"seed" yaml:"seed"`
	BombThreshold int         `mapstructure:"bomb_threshold" yaml:"bomb_threshold"`
}

type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

type ServerConfig struct {
	Addr      string        `mapstructure:"addr" yaml:"addr"`
	FPS       int           `mapstructure:"fps" yaml:"fps"`
	Countdown time.Duration `mapstructure:"countdown" yaml:"countdown"`
}

type PlayerConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
}

// Dir is the per-user directory holding the config file, the score database
// and the log file.
func Dir() string {
	return configdir.LocalConfig(AppName)
}

func Defaults() Config {
	dir := Dir()
	name := os.Getenv("USER")
	if name == "" {
		name = "player"
	}
	return Config{
		Game: GameConfig{
			Mode:          tetris.ModeNormal,
			Width:         tetris.DefaultWidth,
			Height:        tetris.DefaultHeight,
			Preview:       tetris.DefaultPreview,
			BombThreshold: tetris.DefaultBombThreshold,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "scores.db"),
		},
		Log: LogConfig{
			Level: logrus.InfoLevel.String(),
			File:  filepath.Join(dir, "tetris.log"),
		},
		Server: ServerConfig{
			Addr:      "localhost:8123",
			FPS:       24,
			Countdown: 3 * time.Second,
		},
		Player: PlayerConfig{
			Name: name,
		},
	}
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("game.mode", cfg.Game.Mode.String())
	v.SetDefault("game.width", cfg.Game.Width)
	v.SetDefault("game.height", cfg.Game.Height)
	v.SetDefault("game.preview", cfg.Game.Preview)
	v.SetDefault("game.seed", cfg.Game.Seed)
	v.SetDefault("game.bomb_threshold", cfg.Game.BombThreshold)
	v.SetDefault("store.path", cfg.Store.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.fps", cfg.Server.FPS)
	v.SetDefault("server.countdown", cfg.Server.Countdown)
	v.SetDefault("player.name", cfg.Player.Name)
}

// New returns a viper instance with defaults and TETRIS_* environment
// overrides. With an empty path it looks for config.yaml in Dir and
// tolerates its absence; an explicit path must exist.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Decode turns the merged viper settings into a validated Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	v, err := New(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

func (c *Config) Validate() error {
	switch {
	case c.Game.Width < 4:
		return fmt.Errorf("%w: game.width must be at least 4, got %d", ErrInvalidConfig, c.Game.Width)
	case c.Game.Height < tetris.HiddenRows+tetris.PyramidRows:
		return fmt.Errorf("%w: game.height must be at least %d, got %d", ErrInvalidConfig, tetris.HiddenRows+tetris.PyramidRows, c.Game.Height)
	case c.Game.Preview < 1:
		return fmt.Errorf("%w: game.preview must be positive", ErrInvalidConfig)
	case c.Game.BombThreshold < 1:
		return fmt.Errorf("%w: game.bomb_threshold must be positive", ErrInvalidConfig)
	case c.Server.FPS < 1:
		return fmt.Errorf("%w: server.fps must be positive", ErrInvalidConfig)
	case c.Server.Countdown < 0:
		return fmt.Errorf("%w: server.countdown cannot be negative", ErrInvalidConfig)
	case strings.TrimSpace(c.Player.Name) == "":
		return fmt.Errorf("%w: player.name cannot be empty", ErrInvalidConfig)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// BoardOptions translates the game section into engine options. A zero seed
// leaves the board time-seeded.
func (c *Config) BoardOptions() []tetris.BoardOption {
	opts := []tetris.BoardOption{
		tetris.WithMode(c.Game.Mode),
		tetris.WithSize(c.Game.Width, c.Game.Height),
		tetris.WithPreviewCount(c.Game.Preview),
		tetris.WithPowerUpThreshold(c.Game.BombThreshold),
	}
	if c.Game.Seed != 0 {
		opts = append(opts, tetris.WithSeed(c.Game.Seed))
	}
	return opts
}

// Write stores cfg as YAML at path, creating the parent directory. It
// refuses to replace an existing file unless overwrite is set.
func Write(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	if err := configdir.MakePath(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
