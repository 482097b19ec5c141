// Package config loads runtime settings from an optional YAML file with
// environment variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	Listen string `yaml:"listen"`

	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`

	Portal struct {
		BaseURL        string        `yaml:"base_url"`
		Executable     string        `yaml:"executable"`
		UserDataDir    string        `yaml:"user_data_dir"`
		Headless       bool          `yaml:"headless"`
		SearchTimeout  time.Duration `yaml:"search_timeout"`
		ResultsTimeout time.Duration `yaml:"results_timeout"`
	} `yaml:"portal"`

	Download struct {
		Timeout time.Duration `yaml:"timeout"`
		Workers int           `yaml:"workers"`
		Pace    time.Duration `yaml:"pace"`
	} `yaml:"download"`

	Retailers struct {
		SobeysRoot    string `yaml:"sobeys_root"`
		InstacartRoot string `yaml:"instacart_root"`
		AmazonRoot    string `yaml:"amazon_root"`

		// AmazonMarketplace maps a GTIN to the ASINs it is listed
		// under; one GTIN may back several marketplace listings.
		AmazonMarketplace map[string][]string `yaml:"amazon_marketplace"`
	} `yaml:"retailers"`

	UploadDir string `yaml:"upload_dir"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() Config {
	var c Config
	c.Listen = ":8080"
	c.API.Timeout = 30 * time.Second
	c.Portal.Headless = false
	c.Portal.SearchTimeout = 20 * time.Second
	c.Portal.ResultsTimeout = 15 * time.Second
	c.Download.Timeout = 90 * time.Second
	c.Download.Workers = 1
	c.Download.Pace = time.Second
	c.Retailers.SobeysRoot = "downloads/sobeys"
	c.Retailers.InstacartRoot = "downloads/instacart"
	c.Retailers.AmazonRoot = "downloads/amazon"
	c.UploadDir = "uploads"
	return c
}

// Load reads the YAML file at path (skipped when path is empty or the
// file does not exist), then applies environment overrides.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing config file is fine, defaults and env apply.
		case err != nil:
			return c, fmt.Errorf("unable to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return c, fmt.Errorf("unable to parse config %s: %w", path, err)
			}
		}
	}

	c.applyEnv()

	if c.Download.Workers < 1 {
		c.Download.Workers = 1
	}
	return c, nil
}

func (c *Config) applyEnv() {
	setString(&c.Listen, "SYNDICATOR_LISTEN")
	setString(&c.API.BaseURL, "SYNDICATOR_API_BASE_URL")
	setDuration(&c.API.Timeout, "SYNDICATOR_API_TIMEOUT")
	setString(&c.Portal.BaseURL, "SYNDICATOR_PORTAL_BASE_URL")
	setString(&c.Portal.Executable, "SYNDICATOR_PORTAL_EXECUTABLE")
	setString(&c.Portal.UserDataDir, "SYNDICATOR_PORTAL_USER_DATA_DIR")
	setBool(&c.Portal.Headless, "SYNDICATOR_PORTAL_HEADLESS")
	setDuration(&c.Download.Timeout, "SYNDICATOR_DOWNLOAD_TIMEOUT")
	setInt(&c.Download.Workers, "SYNDICATOR_DOWNLOAD_WORKERS")
	setDuration(&c.Download.Pace, "SYNDICATOR_DOWNLOAD_PACE")
	setString(&c.Retailers.SobeysRoot, "SYNDICATOR_SOBEYS_ROOT")
	setString(&c.Retailers.InstacartRoot, "SYNDICATOR_INSTACART_ROOT")
	setString(&c.Retailers.AmazonRoot, "SYNDICATOR_AMAZON_ROOT")
	setString(&c.UploadDir, "SYNDICATOR_UPLOAD_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
