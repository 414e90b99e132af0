package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "NAVGATE_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Auth     AuthConfig     `koanf:"auth"`
	Access   AccessConfig   `koanf:"access"`
	CORS     CORSConfig     `koanf:"cors"`
	Audit    AuditConfig    `koanf:"audit"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url"`
	MaxConns int    `koanf:"maxconns"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type AuthConfig struct {
	DevMode bool      `koanf:"devmode"`
	JWT     JWTConfig `koanf:"jwt"`
}

type JWTConfig struct {
	SigningKey         string `koanf:"signingkey"`
	Issuer             string `koanf:"issuer"`
	ExpiryHours        int    `koanf:"expiryhours"`
	RefreshExpiryHours int    `koanf:"refreshexpiryhours"`
}

// AccessConfig selects where the org chart and path map come from and which
// role keys get blanket access.
type AccessConfig struct {
	Source            string   `koanf:"source"` // "default", "file" or "postgres"
	CatalogPath       string   `koanf:"catalogpath"`
	SuperAdminKeys    []string `koanf:"superadminkeys"`
	BlanketViewerKeys []string `koanf:"blanketviewerkeys"`
	// AdminPath is the dashboard path guarding the permission diagnostics
	// and reload endpoints.
	AdminPath string `koanf:"adminpath"`
}

// AuditConfig tunes the database-backed audit logger. FlushInterval is in
// milliseconds.
type AuditConfig struct {
	BufferSize    int `koanf:"buffersize"`
	BatchSize     int `koanf:"batchsize"`
	FlushInterval int `koanf:"flushinterval"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowedorigins"`
}

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"access.superadminkeys":    true,
	"access.blanketviewerkeys": true,
	"cors.allowedorigins":      true,
}

func Load(configPaths ...string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"server.port":                 8080,
		"server.host":                 "0.0.0.0",
		"database.maxconns":           5,
		"log.level":                   "info",
		"log.format":                  "json",
		"auth.devmode":                false,
		"auth.jwt.issuer":             "navgate",
		"auth.jwt.expiryhours":        24,
		"auth.jwt.refreshexpiryhours": 168,
		"access.source":               "default",
		"access.catalogpath":          "catalog.yaml",
		"access.superadminkeys":       []string{"SuperAdmin"},
		"access.blanketviewerkeys":    []string{"admin"},
		"access.adminpath":            "/dashboard/settings/permissions",
		"audit.buffersize":            4096,
		"audit.batchsize":             100,
		"audit.flushinterval":         500,
		"cors.allowedorigins":         []string{"http://localhost:3000"},
	}, "."), nil)

	// YAML file (optional)
	for _, path := range configPaths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			continue
		}
	}

	// NAVGATE_SERVER_PORT -> server.port
	_ = k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "_", ".")
		if listKeys[key] {
			return key, splitList(value)
		}
		return key, value
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
