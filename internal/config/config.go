package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Funnel struct {
		ID       string `yaml:"id"`
		TTL      string `yaml:"ttl"`
		Location string `yaml:"location"`
	} `yaml:"funnel"`
	Sheets struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"sheets"`
	Session struct {
		Secret string `yaml:"secret"`
		TTL    string `yaml:"ttl"`
		Sweep  string `yaml:"sweep"`
	} `yaml:"session"`
}

// envOverrides maps environment variables onto config fields. Secrets and
// endpoints usually live in .env rather than in the committed YAML.
var envOverrides = map[string]func(*Config, string){
	"SHEETS_URL":     func(c *Config, v string) { c.Sheets.URL = v },
	"SESSION_SECRET": func(c *Config, v string) { c.Session.Secret = v },
	"REDIS_ADDR":     func(c *Config, v string) { c.Redis.Addr = v },
	"POSTGRES_URL":   func(c *Config, v string) { c.Postgres.URL = v },
}

// Load reads YAML config from path, then applies .env and process
// environment overrides.
func Load(path string) (Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return cfg, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("reading .env: %v", err)
	}
	ApplyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// Parse reads the YAML file only.
func Parse(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overwrites fields whose variable is set and non-empty.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	for key, set := range envOverrides {
		if v, ok := lookup(key); ok && v != "" {
			set(cfg, v)
		}
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves an IANA zone name, UTC when empty or unknown.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("unknown location %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}
