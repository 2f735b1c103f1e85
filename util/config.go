package util

import (
	_ "embed"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const Name = "linkodon"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host        string
		HttpPort    int     `yaml:"httpPort"`
		SslDomain   string  `yaml:"sslDomain"`
		WithAp      bool    `yaml:"withAp"`
		Closed      bool    `yaml:"closed"`
		RateLimit   float64 `yaml:"rateLimit"`
		RateBurst   int     `yaml:"rateBurst"`
		ApRateLimit float64 `yaml:"apRateLimit"`
		ApRateBurst int     `yaml:"apRateBurst"`
	}
}

// Rate limit defaults, applied when the config file leaves them unset.
const (
	defaultRateLimit   = 10
	defaultRateBurst   = 20
	defaultApRateLimit = 5
	defaultApRateBurst = 10
)

// WebLimits returns requests per second and burst size per IP for the
// public endpoints.
func (c *AppConfig) WebLimits() (float64, int) {
	r, b := c.Conf.RateLimit, c.Conf.RateBurst
	if r <= 0 {
		r = defaultRateLimit
	}
	if b <= 0 {
		b = defaultRateBurst
	}
	return r, b
}

// ApLimits returns the per-IP budget for the federation endpoints.
func (c *AppConfig) ApLimits() (float64, int) {
	r, b := c.Conf.ApRateLimit, c.Conf.ApRateBurst
	if r <= 0 {
		r = defaultApRateLimit
	}
	if b <= 0 {
		b = defaultApRateBurst
	}
	return r, b
}

// BaseURL returns the canonical https base URL of this instance.
func (c *AppConfig) BaseURL() *url.URL {
	return &url.URL{Scheme: "https", Host: c.Conf.SslDomain}
}

// Domain returns the host[:port] this instance considers local.
func (c *AppConfig) Domain() string {
	return c.Conf.SslDomain
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envHost := os.Getenv("LINKODON_HOST")
	envHttpPort := os.Getenv("LINKODON_HTTPPORT")
	envSslDomain := os.Getenv("LINKODON_SSLDOMAIN")
	envWithAp := os.Getenv("LINKODON_WITH_AP")
	envClosed := os.Getenv("LINKODON_CLOSED")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envSslDomain != "" {
		c.Conf.SslDomain = envSslDomain
	}

	if envWithAp == "true" {
		c.Conf.WithAp = true
	}

	if envClosed == "true" {
		c.Conf.Closed = true
	}

	return c, nil
}
