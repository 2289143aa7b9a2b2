package config

import "time"

type logCfg struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type fetchCfg struct {
	Retries      int    `toml:"retries"`
	RetryDelayMs int    `toml:"retryDelayMs"`
	TimeoutMs    int    `toml:"timeoutMs"`
	UserAgent    string `toml:"userAgent"`

	ClientTimeoutS      int `toml:"clientTimeoutSeconds"`
	MaxIdleConns        int `toml:"maxIdleConn"`
	MaxIdleConnsPerHost int `toml:"maxIdleConnPerHost"`
	IdleConnTimeoutS    int `toml:"idleConnTimeoutSeconds"`
}

func (f fetchCfg) RetryDelay() time.Duration {
	return time.Duration(f.RetryDelayMs) * time.Millisecond
}

func (f fetchCfg) Timeout() time.Duration {
	return time.Duration(f.TimeoutMs) * time.Millisecond
}

func (f fetchCfg) ClientTimeout() time.Duration {
	return time.Duration(f.ClientTimeoutS) * time.Second
}

func (f fetchCfg) IdleConnTimeout() time.Duration {
	return time.Duration(f.IdleConnTimeoutS) * time.Second
}

type cacheCfg struct {
	Enabled          bool `toml:"enabled"`
	CleanupIntervalS int  `toml:"cleanupIntervalSeconds"`
}

func (c cacheCfg) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalS) * time.Second
}

type sessionCfg struct {
	MaxSessions     int `toml:"maxSessions"`
	IdleTimeoutMs   int `toml:"idleTimeoutMs"`
	SweepIntervalMs int `toml:"sweepIntervalMs"`
}

func (s sessionCfg) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMs) * time.Millisecond
}

func (s sessionCfg) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMs) * time.Millisecond
}

type SystemCfg struct {
	ListenAddr     string     `toml:"listenaddr"`
	AllowedOrigins []string   `toml:"allowedOrigins"`
	Log            logCfg     `toml:"log"`
	Fetch          fetchCfg   `toml:"fetch"`
	Cache          cacheCfg   `toml:"cache"`
	Session        sessionCfg `toml:"session"`
}
