package util

import (
	"os"
	"testing"
)

func TestConfigConstants(t *testing.T) {
	if Name != "linkodon" {
		t.Errorf("Expected Name 'linkodon', got '%s'", Name)
	}

	if ConfigFileName != "config.yaml" {
		t.Errorf("Expected ConfigFileName 'config.yaml', got '%s'", ConfigFileName)
	}
}

func TestReadConfWithYaml(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  withAp: true
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if config.Conf.Host != "127.0.0.1" {
		t.Errorf("Expected Host '127.0.0.1', got '%s'", config.Conf.Host)
	}

	if config.Conf.HttpPort != 9999 {
		t.Errorf("Expected HttpPort 9999, got %d", config.Conf.HttpPort)
	}

	if config.Conf.SslDomain != "example.com" {
		t.Errorf("Expected SslDomain 'example.com', got '%s'", config.Conf.SslDomain)
	}

	if !config.Conf.WithAp {
		t.Error("Expected WithAp to be true")
	}
}

func TestReadConfWithEnvOverrides(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  withAp: false
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	os.Setenv("LINKODON_HOST", "192.168.1.1")
	os.Setenv("LINKODON_HTTPPORT", "8080")
	os.Setenv("LINKODON_SSLDOMAIN", "test.example.com")
	os.Setenv("LINKODON_WITH_AP", "true")

	defer func() {
		os.Unsetenv("LINKODON_HOST")
		os.Unsetenv("LINKODON_HTTPPORT")
		os.Unsetenv("LINKODON_SSLDOMAIN")
		os.Unsetenv("LINKODON_WITH_AP")
	}()

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	if config.Conf.Host != "192.168.1.1" {
		t.Errorf("Expected Host '192.168.1.1' from env, got '%s'", config.Conf.Host)
	}

	if config.Conf.HttpPort != 8080 {
		t.Errorf("Expected HttpPort 8080 from env, got %d", config.Conf.HttpPort)
	}

	if config.Conf.SslDomain != "test.example.com" {
		t.Errorf("Expected SslDomain 'test.example.com' from env, got '%s'", config.Conf.SslDomain)
	}

	if !config.Conf.WithAp {
		t.Error("Expected WithAp to be true from env")
	}
}

func TestRateLimitDefaults(t *testing.T) {
	conf := &AppConfig{}

	r, b := conf.WebLimits()
	if r != 10 || b != 20 {
		t.Errorf("Expected default web limits 10/20, got %v/%d", r, b)
	}

	r, b = conf.ApLimits()
	if r != 5 || b != 10 {
		t.Errorf("Expected default federation limits 5/10, got %v/%d", r, b)
	}
}

func TestRateLimitsFromConfig(t *testing.T) {
	yamlContent := `
conf:
  host: 127.0.0.1
  httpPort: 9999
  sslDomain: example.com
  rateLimit: 50
  rateBurst: 100
  apRateLimit: 2
  apRateBurst: 4
`
	err := os.WriteFile("config.yaml", []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config: %v", err)
	}
	defer os.Remove("config.yaml")

	config, err := ReadConf()
	if err != nil {
		t.Fatalf("ReadConf failed: %v", err)
	}

	r, b := config.WebLimits()
	if r != 50 || b != 100 {
		t.Errorf("Expected configured web limits 50/100, got %v/%d", r, b)
	}

	r, b = config.ApLimits()
	if r != 2 || b != 4 {
		t.Errorf("Expected configured federation limits 2/4, got %v/%d", r, b)
	}
}

func TestBaseURLAndDomain(t *testing.T) {
	conf := &AppConfig{}
	conf.Conf.SslDomain = "local.test:8080"

	base := conf.BaseURL()
	if base.String() != "https://local.test:8080" {
		t.Errorf("Expected https://local.test:8080, got %s", base)
	}
	if conf.Domain() != "local.test:8080" {
		t.Errorf("Expected domain with port, got %s", conf.Domain())
	}
}
