package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("supportql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Store.Driver != "sqlite" {
		t.Fatalf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Store.DSN != "supportql.db" {
		t.Fatalf("Store.DSN = %q", cfg.Store.DSN)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
	if cfg.Archive.BatchLimit != 1000 {
		t.Fatalf("Archive.BatchLimit = %d", cfg.Archive.BatchLimit)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.ObjectStore.Endpoint != "localhost:9000" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"SUPPORTQL_PROFILE": "prod"})
	cfg, err := Load("supportql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Store.Driver != "pgx" {
		t.Fatalf("Store.Driver = %q, want pgx in prod", cfg.Store.Driver)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("ObjectStore.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"SUPPORTQL_PROFILE":                 "test",
		"SUPPORTQL_SERVICE_NAME":            "supportql-custom",
		"SUPPORTQL_HTTP_ADDR":               ":9999",
		"SUPPORTQL_HTTP_READ_TIMEOUT":       "2s",
		"SUPPORTQL_STORE_DRIVER":            "pgx",
		"SUPPORTQL_STORE_DSN":               "postgres://example",
		"SUPPORTQL_STORE_MAX_OPEN_CONNS":    "42",
		"SUPPORTQL_STORE_MAX_IDLE_CONNS":    "17",
		"SUPPORTQL_LLM_BASE_URL":            "https://api.groq.com/openai",
		"SUPPORTQL_LLM_API_KEY":             "secret-key",
		"SUPPORTQL_LLM_MODEL":               "llama-3.3-70b-versatile",
		"SUPPORTQL_LLM_TEMPERATURE":         "0.3",
		"SUPPORTQL_LLM_TIMEOUT":             "21s",
		"SUPPORTQL_OBJECTSTORE_ENDPOINT":    "s3.example.com",
		"SUPPORTQL_OBJECTSTORE_BUCKET":      "supportql-prod",
		"SUPPORTQL_ARCHIVE_ENABLED":         "true",
		"SUPPORTQL_ARCHIVE_INTERVAL":        "5m",
		"SUPPORTQL_ARCHIVE_BATCH_LIMIT":     "250",
		"SUPPORTQL_LOG_LEVEL":               "error",
		"SUPPORTQL_AUTH_REQUIRED":           "true",
		"SUPPORTQL_AUTH_STATIC_KEYS":        "k1:agent-1:support_user",
		"SUPPORTQL_STORE_CONN_MAX_LIFETIME": "45m",
	})
	cfg, err := Load("supportql-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "supportql-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Store.Driver != "pgx" {
		t.Fatalf("Store.Driver = %q", cfg.Store.Driver)
	}
	if cfg.Store.DSN != "postgres://example" {
		t.Fatalf("Store.DSN = %q", cfg.Store.DSN)
	}
	if cfg.Store.MaxOpenConns != 42 {
		t.Fatalf("Store.MaxOpenConns = %d", cfg.Store.MaxOpenConns)
	}
	if cfg.Store.MaxIdleConns != 17 {
		t.Fatalf("Store.MaxIdleConns = %d", cfg.Store.MaxIdleConns)
	}
	if cfg.Store.ConnMaxLifetime != 45*time.Minute {
		t.Fatalf("Store.ConnMaxLifetime = %s", cfg.Store.ConnMaxLifetime)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai" {
		t.Fatalf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.APIKey != "secret-key" {
		t.Fatalf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Fatalf("LLM.Temperature = %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 21*time.Second {
		t.Fatalf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.ObjectStore.Endpoint != "s3.example.com" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.ObjectStore.Bucket != "supportql-prod" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
	if !cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled = false, want true")
	}
	if cfg.Archive.Interval != 5*time.Minute {
		t.Fatalf("Archive.Interval = %s", cfg.Archive.Interval)
	}
	if cfg.Archive.BatchLimit != 250 {
		t.Fatalf("Archive.BatchLimit = %d", cfg.Archive.BatchLimit)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:agent-1:support_user" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"SUPPORTQL_PROFILE": "oops"},
		{"SUPPORTQL_HTTP_READ_TIMEOUT": "NaN"},
		{"SUPPORTQL_STORE_MAX_OPEN_CONNS": "oops"},
		{"SUPPORTQL_STORE_DRIVER": "oracle"},
		{"SUPPORTQL_LLM_TEMPERATURE": "bad"},
		{"SUPPORTQL_ARCHIVE_BATCH_LIMIT": "many"},
		{"SUPPORTQL_AUTH_REQUIRED": "not-bool"},
		{"SUPPORTQL_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("supportql-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
