package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"DEBUG", "LOG_DIR", "GATEWAY_PORT", "DB_PORT", "DB_HOST", "S3_BUCKET", "GATEWAY_LINK_TTL", "BOORU_CATALOGUE"} {
		t.Setenv(key, "")
	}
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.Debug || c.LogDir != "." || c.Gateway.Port != "8080" || c.DB.Port != 5432 || c.Gateway.LinkTTL != time.Hour {
		t.Errorf("defaults = %+v", c)
	}
	if c.S3Enabled() || c.DBEnabled() {
		t.Errorf("S3/DB enabled without configuration")
	}
	cat, err := c.Sources()
	if err != nil || cat.Len() != 4 {
		t.Errorf("built-in catalogue = %v, %v", cat, err)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DEBUG", "true")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("S3_BUCKET", "assets")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("GATEWAY_PUBLIC_URL", "https://booru.example.org")
	t.Setenv("GATEWAY_LINK_TTL", "15m")
	t.Setenv("BOORU_USER_AGENT", "archiver/1.0 (by someone)")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !c.Debug || c.DB.Port != 6543 || !c.DBEnabled() || !c.S3Enabled() {
		t.Errorf("config = %+v", c)
	}
	if c.S3.Endpoint != "http://minio:9000" || c.Gateway.PublicURL != "https://booru.example.org" {
		t.Errorf("config = %+v", c)
	}
	if c.Gateway.LinkTTL != 15*time.Minute || c.UserAgent != "archiver/1.0 (by someone)" {
		t.Errorf("config = %+v", c)
	}
}

func TestFromEnvErrors(t *testing.T) {
	t.Setenv("DEBUG", "maybe")
	t.Setenv("DB_PORT", "five")
	t.Setenv("GATEWAY_LINK_TTL", "-1h")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("FromEnv succeeded with broken values")
	}
	for _, key := range []string{"DEBUG", "DB_PORT", "GATEWAY_LINK_TTL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GATEWAY_PORT=9090\nASSET_DIR=/srv/assets\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides variables that are already set
	t.Setenv("GATEWAY_PORT", "")
	os.Unsetenv("GATEWAY_PORT")
	t.Setenv("ASSET_DIR", "/data")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Gateway.Port != "9090" || c.AssetDir != "/data" {
		t.Errorf("port = %q, asset dir = %q", c.Gateway.Port, c.AssetDir)
	}
	os.Unsetenv("GATEWAY_PORT")
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("Load with a missing file: %v", err)
	}
}

func TestClients(t *testing.T) {
	t.Setenv("BOORU_CATALOGUE", "")
	c, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}

	all, err := c.Clients()
	if err != nil || len(all) != 4 {
		t.Fatalf("Clients() = %d, %v", len(all), err)
	}
	some, err := c.Clients("e621", "RULE34")
	if err != nil || len(some) != 2 || some[0].Name() != "E621" || some[1].Name() != "Rule34" {
		t.Fatalf("Clients(e621, RULE34) = %v, %v", some, err)
	}
	if _, err := c.Clients("gelbooru"); err == nil {
		t.Errorf("unknown source accepted")
	}
}
