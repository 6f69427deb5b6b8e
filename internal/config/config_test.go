package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.CubeHalfSize != 0.7 || cfg.ShearAmount != 0.3 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SaveInterval != 30*time.Second {
		t.Fatalf("save interval = %v", cfg.SaveInterval)
	}
	if cfg.ScriptTimeout != 5*time.Second || cfg.ScriptMaxConcurrent != 4 {
		t.Fatalf("script limits = %v, %d", cfg.ScriptTimeout, cfg.ScriptMaxConcurrent)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ROTATE_STEP", "15")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.RotateStep != 15 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("SCALE_UP", "big")
	if _, err := Load(); err == nil {
		t.Fatal("expected error")
	}
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " http://a:1, ,https://b "}
	if got := cfg.Origins(); !reflect.DeepEqual(got, []string{"http://a:1", "https://b"}) {
		t.Fatalf("Origins = %v", got)
	}
	if got := cfg.OriginHosts(); !reflect.DeepEqual(got, []string{"a:1", "b"}) {
		t.Fatalf("OriginHosts = %v", got)
	}
}
