package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

var defaultSystemCfg = SystemCfg{
	ListenAddr: ":8000",
	AllowedOrigins: []string{
		"http://localhost",
		"http://127.0.0.1",
	},
	Log: logCfg{
		Level:  "info",
		Format: "text",
	},
	Fetch: fetchCfg{
		Retries:      3,
		RetryDelayMs: 1000,
		TimeoutMs:    5000,
		UserAgent:    "meteoswiss-mcp/1.0 (+https://github.com/alpweather/meteoswiss-mcp)",

		ClientTimeoutS:      30,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeoutS:    90,
	},
	Cache: cacheCfg{
		Enabled:          true,
		CleanupIntervalS: 300,
	},
	Session: sessionCfg{
		MaxSessions:     100,
		IdleTimeoutMs:   300000,
		SweepIntervalMs: 60000,
	},
}

func LoadConfig() (*SystemCfg, error) {
	configFile := flag.String("config", "config.toml", "location of config file")
	flag.Parse()
	return LoadFile(*configFile)
}

// LoadFile decodes the toml file over the defaults. A missing file is not an
// error; the server runs on defaults alone.
func LoadFile(path string) (*SystemCfg, error) {
	config := defaultSystemCfg

	if _, err := toml.DecodeFile(path, &config); err != nil {
		if os.IsNotExist(err) {
			return applyEnv(&config)
		}
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	return applyEnv(&config)
}

func applyEnv(config *SystemCfg) (*SystemCfg, error) {
	if addr := os.Getenv("METEOSWISS_MCP_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *SystemCfg) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listenaddr must not be empty")
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must be >= 0, got %d", c.Fetch.Retries)
	}
	if c.Fetch.TimeoutMs <= 0 {
		return fmt.Errorf("fetch.timeoutMs must be > 0, got %d", c.Fetch.TimeoutMs)
	}
	if c.Fetch.ClientTimeoutS <= 0 {
		return fmt.Errorf("fetch.clientTimeoutSeconds must be > 0, got %d", c.Fetch.ClientTimeoutS)
	}
	if c.Fetch.MaxIdleConns < 0 || c.Fetch.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("fetch idle connection limits must be >= 0")
	}
	if c.Fetch.IdleConnTimeoutS <= 0 {
		return fmt.Errorf("fetch.idleConnTimeoutSeconds must be > 0, got %d", c.Fetch.IdleConnTimeoutS)
	}
	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session.maxSessions must be > 0, got %d", c.Session.MaxSessions)
	}
	if c.Session.IdleTimeoutMs <= 0 {
		return fmt.Errorf("session.idleTimeoutMs must be > 0, got %d", c.Session.IdleTimeoutMs)
	}
	if c.Session.SweepIntervalMs <= 0 {
		return fmt.Errorf("session.sweepIntervalMs must be > 0, got %d", c.Session.SweepIntervalMs)
	}
	if c.Cache.CleanupIntervalS <= 0 {
		return fmt.Errorf("cache.cleanupIntervalSeconds must be > 0, got %d", c.Cache.CleanupIntervalS)
	}
	return nil
}
