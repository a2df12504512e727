package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"vgw/internal/constants"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != constants.DefaultListen {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.CustodianSocket != constants.DefaultCustodianSocket {
		t.Errorf("CustodianSocket = %q", cfg.CustodianSocket)
	}
	if cfg.CacheCapacity != constants.DefaultCacheCapacity {
		t.Errorf("CacheCapacity = %d", cfg.CacheCapacity)
	}
	if cfg.ClientCompat {
		t.Error("ClientCompat defaults on")
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vgw.yaml")
	content := `
listen: "10.0.0.1:4443"
certs:
  - /etc/vgw/rsa.crt
  - /etc/vgw/ec.crt
client_compat: true
cache_capacity: 32
cache_ttl: 30m
custodian_socket: /run/vgw/cust.sock
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "10.0.0.1:4443" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if len(cfg.CertFiles) != 2 || cfg.CertFiles[1] != "/etc/vgw/ec.crt" {
		t.Errorf("CertFiles = %v", cfg.CertFiles)
	}
	if !cfg.ClientCompat {
		t.Error("ClientCompat not picked up")
	}
	if cfg.CacheCapacity != 32 {
		t.Errorf("CacheCapacity = %d", cfg.CacheCapacity)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.CustodianSocket != "/run/vgw/cust.sock" {
		t.Errorf("CustodianSocket = %q", cfg.CustodianSocket)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vgw.yaml")
	if err := os.WriteFile(path, []byte("listen: \"1.2.3.4:443\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvListen, "[::1]:8443")
	t.Setenv(EnvClientCompat, "true")
	t.Setenv(EnvCacheCapacity, "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr != "[::1]:8443" {
		t.Errorf("ListenAddr = %q, env override lost", cfg.ListenAddr)
	}
	if !cfg.ClientCompat || cfg.CacheCapacity != 7 {
		t.Errorf("env overrides lost: compat=%v capacity=%d", cfg.ClientCompat, cfg.CacheCapacity)
	}
}

func TestInvalidEnvValues(t *testing.T) {
	t.Setenv(EnvClientCompat, "not-a-bool")
	if _, err := Load(""); err == nil {
		t.Error("Load accepted a malformed boolean")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load accepted a missing config file")
	}
}
