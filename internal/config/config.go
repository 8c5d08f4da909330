package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the root configuration for architrack, stored in
// ~/.architrack/config.json. The file supports single-line // comments.
type Config struct {
	// Env selects the log format: "production" logs JSON.
	Env     string        `json:"env"`
	Store   StoreConfig   `json:"store"`
	Offline OfflineConfig `json:"offline"`
	Server  ServerConfig  `json:"server"`
	Outlook OutlookConfig `json:"outlook"`
}

// StoreConfig locates the hosted database.
type StoreConfig struct {
	// URL is the base URL of the hosted REST service, e.g. https://xyz.supabase.co.
	URL string `json:"url"`
	// APIKey is the anon/public key sent as apikey header and bearer token.
	APIKey string `json:"api_key"`
	// DatabaseURL, when set, bypasses the REST service and talks to Postgres directly.
	DatabaseURL string `json:"database_url"`
}

// OfflineConfig drives the caching layer.
type OfflineConfig struct {
	// Version names the cache bucket; changing it discards older buckets on activation.
	Version string `json:"version"`
	// Origin is where the app shell is served from; relative manifest entries resolve against it.
	Origin string `json:"origin"`
	// Manifest lists the app shell resources primed at install time.
	Manifest []string `json:"manifest"`
	// CDNHosts are served stale-while-revalidate.
	CDNHosts []string `json:"cdn_hosts"`
	// RedisURL, when set, keeps cache buckets in Redis instead of ~/.architrack/caches.
	RedisURL string `json:"redis_url"`
}

// ServerConfig configures `architrack serve`.
type ServerConfig struct {
	Addr        string   `json:"addr"`
	CORSOrigins []string `json:"cors_origins"`
}

// OutlookConfig holds Microsoft Graph calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Madrid"). Empty = UTC.
	Timezone string `json:"timezone"`
}

const (
	DefaultVersion = "architrack-v3"
	DefaultOrigin  = "http://localhost:3000/Architrack"
	DefaultAddr    = ":8080"
	// DefaultTenantID is the Microsoft "common" tenant.
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID; it supports the
	// device code flow without a client secret.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
)

// DefaultManifest is the app shell primed on install.
var DefaultManifest = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"https://cdn.tailwindcss.com",
	"https://fonts.googleapis.com/css2?family=Inter:wght@300;400;500;600;700&display=swap",
}

// DefaultCDNHosts are the static-asset hosts served stale-while-revalidate.
var DefaultCDNHosts = []string{
	"cdn.tailwindcss.com",
	"fonts.googleapis.com",
	"fonts.gstatic.com",
}

// Environment variables that override the file.
const (
	EnvStoreURL    = "ARCHITRACK_STORE_URL"
	EnvStoreKey    = "ARCHITRACK_STORE_KEY"
	EnvDatabaseURL = "ARCHITRACK_DATABASE_URL"
	EnvRedisURL    = "ARCHITRACK_REDIS_URL"
	EnvEnv         = "ARCHITRACK_ENV"
	EnvAddr        = "ARCHITRACK_ADDR"
)

// ErrStoreNotConfigured is returned when neither a REST URL nor a database URL is set.
var ErrStoreNotConfigured = errors.New("no backing store configured: set store.url (or " + EnvStoreURL + ") in ~/.architrack/config.json")

func defaultConfig() Config {
	return Config{
		Env: "development",
		Offline: OfflineConfig{
			Version:  DefaultVersion,
			Origin:   DefaultOrigin,
			Manifest: append([]string(nil), DefaultManifest...),
			CDNHosts: append([]string(nil), DefaultCDNHosts...),
		},
		Server: ServerConfig{Addr: DefaultAddr},
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing.
const configTemplate = `// architrack configuration – ~/.architrack/config.json
//
// Secrets can also come from the environment or a .env file:
// ARCHITRACK_STORE_URL, ARCHITRACK_STORE_KEY, ARCHITRACK_DATABASE_URL, ARCHITRACK_REDIS_URL.
{
  "env": "development",

  // ── Hosted database ─────────────────────────────────────────────────────
  "store": {
    // Base URL of the hosted REST service, e.g. "https://xyz.supabase.co".
    "url": "",
    // Public (anon) API key.
    "api_key": "",
    // Optional direct Postgres connection string; takes precedence over url.
    "database_url": ""
  },

  // ── Offline cache ───────────────────────────────────────────────────────
  "offline": {
    // Bucket name. Bump it on every release; activation removes older buckets.
    "version": "architrack-v3",
    // Where the app shell lives. Relative manifest entries resolve against it.
    "origin": "http://localhost:3000/Architrack",
    "manifest": [
      "/",
      "/index.html",
      "/manifest.json",
      "https://cdn.tailwindcss.com",
      "https://fonts.googleapis.com/css2?family=Inter:wght@300;400;500;600;700&display=swap"
    ],
    "cdn_hosts": ["cdn.tailwindcss.com", "fonts.googleapis.com", "fonts.gstatic.com"],
    // Keep buckets in Redis instead of ~/.architrack/caches.
    "redis_url": ""
  },

  "server": {
    "addr": ":8080",
    "cors_origins": []
  },

  // ── Outlook calendar import ─────────────────────────────────────────────
  "outlook": {
    "tenant_id": "common",
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",
    // IANA timezone for calendar event times. Empty = UTC.
    "timezone": ""
  }
}
`

// BaseDir returns the root data directory (~/.architrack).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".architrack"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads .env (if present) and ~/.architrack/config.json, creating the
// file with annotated defaults on first run.
func Load() (Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	base, err := BaseDir()
	if err != nil {
		return defaultConfig(), err
	}
	return LoadFrom(filepath.Join(base, "config.json"))
}

// LoadFrom reads the config file at path, then applies environment overrides.
func LoadFrom(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg := defaultConfig()
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	fillDefaults(&cfg)
	applyEnv(&cfg)
	return cfg, nil
}

// fillDefaults replaces zero values with built-in defaults so a partially
// filled file still yields a usable Config.
func fillDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Env == "" {
		cfg.Env = def.Env
	}
	if cfg.Offline.Version == "" {
		cfg.Offline.Version = def.Offline.Version
	}
	if cfg.Offline.Origin == "" {
		cfg.Offline.Origin = def.Offline.Origin
	}
	if len(cfg.Offline.Manifest) == 0 {
		cfg.Offline.Manifest = def.Offline.Manifest
	}
	if len(cfg.Offline.CDNHosts) == 0 {
		cfg.Offline.CDNHosts = def.Offline.CDNHosts
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = def.Outlook.TenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = def.Outlook.ClientID
	}
}

func applyEnv(cfg *Config) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&cfg.Store.URL, EnvStoreURL)
	override(&cfg.Store.APIKey, EnvStoreKey)
	override(&cfg.Store.DatabaseURL, EnvDatabaseURL)
	override(&cfg.Offline.RedisURL, EnvRedisURL)
	override(&cfg.Env, EnvEnv)
	override(&cfg.Server.Addr, EnvAddr)
	cfg.Store.URL = strings.TrimRight(cfg.Store.URL, "/")
}

// RequireStore reports whether a backing store is configured.
func (c Config) RequireStore() error {
	if c.Store.URL == "" && c.Store.DatabaseURL == "" {
		return ErrStoreNotConfigured
	}
	return nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
