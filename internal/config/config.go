package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio UAA.
// Se carga desde YAML y se puede pisar con variables de entorno.
type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr        string `yaml:"addr"`
		AdminAPIKey string `yaml:"admin_api_key"`
	} `yaml:"server"`

	Storage struct {
		Driver   string `yaml:"driver"` // "postgres" (default)
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // "memory" | "redis"
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Keystore struct {
		Path     string `yaml:"path"`     // PEM con el par RSA
		Alias    string `yaml:"alias"`    // selecciona el bloque por header "alias"
		Password string `yaml:"password"` // passphrase del bloque privado (opcional)
	} `yaml:"keystore"`

	Issuer struct {
		URL        string `yaml:"url"`         // claim "iss" (opcional)
		AccessTTL  string `yaml:"access_ttl"`  // default cuando el cliente no configura TTL
		RefreshTTL string `yaml:"refresh_ttl"` // idem para refresh
	} `yaml:"issuer"`

	Bootstrap struct {
		// Enabled controla el seed del cliente por defecto en store
		// vacío. nil equivale a habilitado.
		Enabled *bool `yaml:"enabled"`
	} `yaml:"bootstrap"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML, aplica defaults y overrides de entorno.
func Load(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// sin archivo: defaults + entorno alcanzan
	default:
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "postgres"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Issuer.AccessTTL == "" {
		c.Issuer.AccessTTL = "2h"
	}
	if c.Issuer.RefreshTTL == "" {
		c.Issuer.RefreshTTL = "720h" // 30d
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()
	return &c, nil
}

// AccessTTL parsea el TTL de access token por defecto.
func (c *Config) AccessTTL() time.Duration {
	return parseDur(c.Issuer.AccessTTL, 2*time.Hour)
}

// RefreshTTL parsea el TTL de refresh token por defecto.
func (c *Config) RefreshTTL() time.Duration {
	return parseDur(c.Issuer.RefreshTTL, 720*time.Hour)
}

// MemoryTTL parsea el TTL del cache en memoria.
func (c *Config) MemoryTTL() time.Duration {
	return parseDur(c.Cache.Memory.DefaultTTL, 2*time.Minute)
}

// BootstrapEnabled: el seed corre salvo que se deshabilite explícito.
func (c *Config) BootstrapEnabled() bool {
	return c.Bootstrap.Enabled == nil || *c.Bootstrap.Enabled
}

// Validate chequea lo mínimo para arrancar.
func (c *Config) Validate() error {
	if c.Keystore.Path == "" {
		return fmt.Errorf("config: keystore.path requerido")
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn requerido para driver postgres")
	}
	return nil
}

func parseDur(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return d
	}
	return def
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Server.AdminAPIKey = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("KEYSTORE_PATH"); ok {
		c.Keystore.Path = v
	}
	if v, ok := getEnvStr("KEYSTORE_ALIAS"); ok {
		c.Keystore.Alias = v
	}
	if v, ok := getEnvStr("KEYSTORE_PASSWORD"); ok {
		c.Keystore.Password = v
	}
	if v, ok := getEnvStr("ISSUER_URL"); ok {
		c.Issuer.URL = v
	}
	if v, ok := getEnvBool("BOOTSTRAP_ENABLED"); ok {
		c.Bootstrap.Enabled = &v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}
