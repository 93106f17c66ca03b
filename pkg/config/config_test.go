package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 7860 {
		t.Errorf("Port = %d, want 7860", cfg.Port)
	}
	if cfg.BaseURL != "http://localhost:7860" {
		t.Errorf("BaseURL = %q, want http://localhost:7860", cfg.BaseURL)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Errorf("CacheTTL = %v, want 300s", cfg.CacheTTL)
	}
	if cfg.CacheSweepThreshold != 100 {
		t.Errorf("CacheSweepThreshold = %d, want 100", cfg.CacheSweepThreshold)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8888")
	t.Setenv("CACHE_TTL", "60")
	t.Setenv("LOG_JSON", "true")
	t.Setenv("GLOBAL_PROXIES", "socks5://127.0.0.1:1080, http://proxy:3128")

	cfg := Load()

	if cfg.Port != 8888 {
		t.Errorf("Port = %d, want 8888", cfg.Port)
	}
	if cfg.CacheTTL != 60*time.Second {
		t.Errorf("CacheTTL = %v, want 60s", cfg.CacheTTL)
	}
	if !cfg.LogJSON {
		t.Error("LogJSON = false, want true")
	}
	if len(cfg.GlobalProxies) != 2 || cfg.GlobalProxies[0] != "socks5://127.0.0.1:1080" {
		t.Errorf("GlobalProxies = %v", cfg.GlobalProxies)
	}
}

func TestParseTransportRoutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"single route", "{URL=newkso.ru, PROXY=socks5://1.2.3.4:1080}", 1},
		{"two routes", "{URL=a.com, DIRECT=true}, {URL=b.com, DISABLE_SSL=true}", 2},
		{"missing URL skipped", "{PROXY=socks5://1.2.3.4:1080}", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			routes := parseTransportRoutes(tt.input)
			if len(routes) != tt.want {
				t.Errorf("parseTransportRoutes(%q) returned %d routes, want %d", tt.input, len(routes), tt.want)
			}
		})
	}

	routes := parseTransportRoutes("{URL=a.com, DIRECT=true}, {URL=b.com, DISABLE_SSL=true}")
	if !routes[0].Direct {
		t.Error("first route Direct = false, want true")
	}
	if !routes[1].DisableSSL {
		t.Error("second route DisableSSL = false, want true")
	}
}
