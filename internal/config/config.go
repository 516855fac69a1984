// Package config loads ymsgctl settings from a TOML file.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zereker/ymsg"
)

// Config holds the settings shared by ymsgctl commands.
type Config struct {
	Host   string
	Port   int
	Handle string

	CookieY string
	CookieT string

	LegacyEncoding bool
	ConnectTimeout time.Duration
	SendTimeout    time.Duration
	ReadTimeout    time.Duration
	SendRate       float64

	ListenAddr  string
	LogLevel    string
	MetricsAddr string
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           5050,
		ConnectTimeout: 30 * time.Second,
		SendTimeout:    30 * time.Second,
		ListenAddr:     "127.0.0.1:5050",
		LogLevel:       "info",
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Credentials returns the login credentials. Cookies are required.
func (c Config) Credentials() (ymsg.Credentials, error) {
	return ymsg.StaticCookies{Handle: c.Handle, CookieY: c.CookieY, CookieT: c.CookieT}.
		Cookies(context.Background(), c.Handle, "")
}

type fileConfig struct {
	Host           string  `toml:"host"`
	Port           int     `toml:"port"`
	Handle         string  `toml:"handle"`
	CookieY        string  `toml:"cookie_y"`
	CookieT        string  `toml:"cookie_t"`
	Cookies        string  `toml:"cookies"`
	LegacyEncoding bool    `toml:"legacy_encoding"`
	ConnectTimeout string  `toml:"connect_timeout"`
	SendTimeout    string  `toml:"send_timeout"`
	ReadTimeout    string  `toml:"read_timeout"`
	SendRate       float64 `toml:"send_rate"`
	ListenAddr     string  `toml:"listen_addr"`
	LogLevel       string  `toml:"log_level"`
	MetricsAddr    string  `toml:"metrics_addr"`
}

// Load reads path over the defaults. Keys missing from the file keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		if raw.Port <= 0 || raw.Port > 65535 {
			return Config{}, fmt.Errorf("invalid port %d", raw.Port)
		}
		cfg.Port = raw.Port
	}
	if meta.IsDefined("handle") {
		cfg.Handle = strings.TrimSpace(raw.Handle)
	}
	if meta.IsDefined("cookie_y") {
		cfg.CookieY = strings.TrimSpace(raw.CookieY)
	}
	if meta.IsDefined("cookie_t") {
		cfg.CookieT = strings.TrimSpace(raw.CookieT)
	}
	// A pasted login response or cookie header fills whichever cookie is unset.
	if meta.IsDefined("cookies") {
		y, t, err := ymsg.ParseCookies(raw.Cookies)
		if err != nil {
			return Config{}, fmt.Errorf("parse cookies: %w", err)
		}
		if cfg.CookieY == "" {
			cfg.CookieY = y
		}
		if cfg.CookieT == "" {
			cfg.CookieT = t
		}
	}
	if meta.IsDefined("legacy_encoding") {
		cfg.LegacyEncoding = raw.LegacyEncoding
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"send_timeout", raw.SendTimeout, &cfg.SendTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.ReadTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("send_rate") {
		cfg.SendRate = raw.SendRate
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	return cfg, nil
}
