package threadpool

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr string `yaml:"addr"`
	Root string `yaml:"root"` // index.html 与 404.html 所在目录

	PoolSize   int           `yaml:"pool_size"`
	BufSize    int           `yaml:"buf_size"`
	SleepDelay time.Duration `yaml:"sleep_delay"`

	// ReadTimeout 读取请求行的超时，0 表示不限
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// LockOSThread 每个 worker 独占系统线程
	LockOSThread bool `yaml:"lock_os_thread"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	AccessFile string `yaml:"access_file"` // 为空时输出到 stdout
	ErrorFile  string `yaml:"error_file"`
	AppFile    string `yaml:"app_file"`
	Debug      bool   `yaml:"debug"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:        "127.0.0.1:7878",
		Root:        ".",
		PoolSize:    4,
		BufSize:     1024,
		SleepDelay:  5 * time.Second,
		ReadTimeout: 10 * time.Second,
		Log: LogConfig{
			AccessFile: "./logs/access.log",
			ErrorFile:  "./logs/error.log",
			AppFile:    "./logs/framework.log",
			MaxSize:    50, // MB
			MaxBackups: 30,
			MaxAge:     7, // days
			Compress:   true,
		},
	}
}

// LoadConfig 读取 YAML 配置，未出现的字段保留默认值
func LoadConfig(path string) (ServerConfig, error) {
	config := DefaultServerConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return config, config.Validate()
}

func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool_size %d: %w", c.PoolSize, ErrInvalidSize)
	}
	if c.BufSize <= 0 {
		return fmt.Errorf("buf_size must be positive, got %d", c.BufSize)
	}
	if c.SleepDelay < 0 {
		return fmt.Errorf("sleep_delay must not be negative, got %s", c.SleepDelay)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout must not be negative, got %s", c.ReadTimeout)
	}
	return nil
}
