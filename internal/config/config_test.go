package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Listen != ":8080" {
		t.Errorf("Listen = %q", c.Listen)
	}
	if c.Download.Workers != 1 {
		t.Errorf("Workers = %d, want 1", c.Download.Workers)
	}
	if c.Download.Timeout != 90*time.Second {
		t.Errorf("Download.Timeout = %v", c.Download.Timeout)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: ":9000"
api:
  base_url: https://dam.example.com
  timeout: 10s
download:
  workers: 4
retailers:
  sobeys_root: /srv/sobeys
  amazon_marketplace:
    "00068100084245":
      - B00ABC1234
      - B00DEF5678
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Listen != ":9000" {
		t.Errorf("Listen = %q", c.Listen)
	}
	if c.API.BaseURL != "https://dam.example.com" {
		t.Errorf("API.BaseURL = %q", c.API.BaseURL)
	}
	if c.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v", c.API.Timeout)
	}
	if c.Download.Workers != 4 {
		t.Errorf("Workers = %d", c.Download.Workers)
	}
	if c.Retailers.SobeysRoot != "/srv/sobeys" {
		t.Errorf("SobeysRoot = %q", c.Retailers.SobeysRoot)
	}
	asins := c.Retailers.AmazonMarketplace["00068100084245"]
	if len(asins) != 2 || asins[0] != "B00ABC1234" {
		t.Errorf("AmazonMarketplace = %v", asins)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SYNDICATOR_LISTEN", ":7000")
	t.Setenv("SYNDICATOR_DOWNLOAD_WORKERS", "8")
	t.Setenv("SYNDICATOR_PORTAL_HEADLESS", "true")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Listen != ":7000" {
		t.Errorf("Listen = %q, want env override", c.Listen)
	}
	if c.Download.Workers != 8 {
		t.Errorf("Workers = %d", c.Download.Workers)
	}
	if !c.Portal.Headless {
		t.Error("Headless should be overridden to true")
	}
}

func TestWorkersFloorIsOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("download:\n  workers: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Download.Workers != 1 {
		t.Errorf("Workers = %d, want floor of 1", c.Download.Workers)
	}
}
