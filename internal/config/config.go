package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             int     `envconfig:"PORT" default:"8080"`
	AllowedOrigins   string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel         string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat        string  `envconfig:"LOG_FORMAT" default:"text"`
	MaxSessions      int     `envconfig:"MAX_SESSIONS" default:"64"`
	MaxBackgrounds   int     `envconfig:"MAX_BACKGROUNDS" default:"64"`
	DeformationScale float64 `envconfig:"DEFORMATION_SCALE" default:"10"`
	SurfaceWidth     float64 `envconfig:"SURFACE_WIDTH" default:"800"`
	SurfaceHeight    float64 `envconfig:"SURFACE_HEIGHT" default:"600"`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxSessions <= 0 {
		return fmt.Errorf("MAX_SESSIONS must be positive, got %d", c.MaxSessions)
	}
	if c.MaxBackgrounds <= 0 {
		return fmt.Errorf("MAX_BACKGROUNDS must be positive, got %d", c.MaxBackgrounds)
	}
	if c.DeformationScale <= 0 {
		return fmt.Errorf("DEFORMATION_SCALE must be positive, got %g", c.DeformationScale)
	}
	if c.SurfaceWidth <= 0 || c.SurfaceHeight <= 0 {
		return fmt.Errorf("invalid surface size %gx%g", c.SurfaceWidth, c.SurfaceHeight)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginPatterns returns the host part of each origin, the form the
// websocket upgrade matches against.
func (c *Config) OriginPatterns() []string {
	var out []string
	for _, o := range c.Origins() {
		if o == "*" {
			out = append(out, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			out = append(out, o)
			continue
		}
		out = append(out, u.Host)
	}
	return out
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
