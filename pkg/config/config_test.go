// pkg/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heinrichb/stocksync/pkg/utils"
)

var envKeys = []string{
	"FTP_PROTOCOL", "FTP_HOST", "FTP_PORT", "FTP_USER", "FTP_PASS", "FTP_KEY_PATH", "FTP_FILE_PATH",
	"BIGCOMMERCE_API_URL", "BIGCOMMERCE_TOKEN",
	"STOCKSYNC_FEED_PATH", "STOCKSYNC_SAVE_PATH", "STOCKSYNC_LOG_FORMAT", "ARCHIVE_BUCKET",
}

// clearEnv blanks every recognised variable so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func getenvFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

/*
TestApplyDefaults checks that defaults are correctly applied when values are missing.
*/
func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "ftp", cfg.Transfer.Protocol)
	assert.Equal(t, 21, cfg.Transfer.Port)
	assert.Equal(t, "/Stock.txt", cfg.Transfer.RemotePath)
	assert.Equal(t, filepath.Join(os.TempDir(), "stock.txt"), cfg.Storage.FeedPath)
	assert.Equal(t, "output/", cfg.Storage.SavePath)
	assert.Equal(t, "feeds/", cfg.Archive.Prefix)
	assert.Equal(t, "console", cfg.Log.Format)

	sftp := &Config{Transfer: TransferConfig{Protocol: "sftp"}}
	sftp.ApplyDefaults()
	assert.Equal(t, 22, sftp.Transfer.Port)

	custom := &Config{Transfer: TransferConfig{Port: 2121, RemotePath: "/in/feed.txt"}}
	custom.ApplyDefaults()
	assert.Equal(t, 2121, custom.Transfer.Port)
	assert.Equal(t, "/in/feed.txt", custom.Transfer.RemotePath)
}

func TestEnvOverride(t *testing.T) {
	o, err := EnvOverride(getenvFrom(map[string]string{
		"FTP_HOST":            "ftp.supplier.example",
		"FTP_PORT":            "2121",
		"FTP_USER":            "stock",
		"FTP_PASS":            "secret",
		"BIGCOMMERCE_API_URL": "https://api.example.com/v3/catalog/products",
		"BIGCOMMERCE_TOKEN":   "tok",
		"ARCHIVE_BUCKET":      "feeds",
	}))
	require.NoError(t, err)

	require.NotNil(t, o.Transfer.Host)
	assert.Equal(t, "ftp.supplier.example", *o.Transfer.Host)
	require.NotNil(t, o.Transfer.Port)
	assert.Equal(t, 2121, *o.Transfer.Port)
	assert.Equal(t, "tok", *o.Catalog.Token)
	assert.Nil(t, o.Transfer.Protocol, "unset variables produce no override")
	assert.Nil(t, o.Storage.SavePath)

	_, err = EnvOverride(getenvFrom(map[string]string{"FTP_PORT": "twenty-one"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FTP_PORT")
}

func TestOverrideConfig(t *testing.T) {
	cfg := &Config{
		Transfer: TransferConfig{Host: "old.example", Username: "keep"},
		Catalog:  CatalogConfig{BaseURL: "https://old.example"},
	}

	host := "new.example"
	port := 990
	bucket := "feeds"
	var o ConfigOverride
	o.Transfer.Host = &host
	o.Transfer.Port = &port
	o.Archive.Bucket = &bucket

	cfg.OverrideConfig(o)

	assert.Equal(t, "new.example", cfg.Transfer.Host)
	assert.Equal(t, 990, cfg.Transfer.Port)
	assert.Equal(t, "keep", cfg.Transfer.Username)
	assert.Equal(t, "https://old.example", cfg.Catalog.BaseURL)
	assert.Equal(t, "feeds", cfg.Archive.Bucket)
	assert.True(t, cfg.Archive.Enabled, "a bucket override turns archiving on")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Transfer: TransferConfig{Host: "ftp.example"},
			Catalog:  CatalogConfig{BaseURL: "https://api.example", Token: "tok"},
		}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing host runs from the local feed", mutate: func(c *Config) { c.Transfer.Host = "" }},
		{name: "bad protocol", mutate: func(c *Config) { c.Transfer.Protocol = "scp" }, wantErr: "protocol"},
		{name: "missing base URL", mutate: func(c *Config) { c.Catalog.BaseURL = "" }, wantErr: "catalog.baseUrl"},
		{name: "missing token", mutate: func(c *Config) { c.Catalog.Token = "" }, wantErr: "catalog.token"},
		{name: "archive without bucket", mutate: func(c *Config) { c.Archive.Enabled = true }, wantErr: "archive.bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

/*
TestLoad_FileThenEnv checks that environment values take precedence over the file.
*/
func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	dir := t.TempDir()
	fileCfg := Config{
		Transfer: TransferConfig{Host: "file.example", Username: "fileuser"},
		Catalog:  CatalogConfig{BaseURL: "https://file.example/products", Token: "filetoken"},
		Sync:     SyncConfig{CreateMissingVariants: true},
	}
	require.NoError(t, utils.SaveToFile(dir, "config.json", fileCfg))

	t.Setenv("FTP_HOST", "env.example")
	t.Setenv("FTP_PORT", "2222")

	cfg, err := Load(filepath.Join(dir, "config.json"))
	require.NoError(t, err)

	assert.Equal(t, "env.example", cfg.Transfer.Host)
	assert.Equal(t, 2222, cfg.Transfer.Port)
	assert.Equal(t, "fileuser", cfg.Transfer.Username)
	assert.Equal(t, "filetoken", cfg.Catalog.Token)
	assert.True(t, cfg.Sync.CreateMissingVariants)
	assert.Equal(t, "ftp", cfg.Transfer.Protocol)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that are already set, even to "".
	for _, k := range []string{"FTP_HOST", "BIGCOMMERCE_TOKEN"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		os.Unsetenv("FTP_HOST")
		os.Unsetenv("BIGCOMMERCE_TOKEN")
	})

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FTP_HOST=dotenv.example\nBIGCOMMERCE_TOKEN=dotenv-token\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv.example", cfg.Transfer.Host)
	assert.Equal(t, "dotenv-token", cfg.Catalog.Token)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")

	t.Setenv("FTP_PORT", "abc")
	_, err = Load("")
	assert.Error(t, err)
}

func TestTransferConfigured(t *testing.T) {
	assert.False(t, TransferConfig{}.Configured())
	assert.True(t, TransferConfig{Host: "ftp.example"}.Configured())
}

func TestRedacted(t *testing.T) {
	cfg := Config{
		Transfer: TransferConfig{Host: "h", Password: "p"},
		Catalog:  CatalogConfig{Token: "t"},
	}
	r := cfg.Redacted()

	assert.Equal(t, "****", r.Transfer.Password)
	assert.Equal(t, "****", r.Catalog.Token)
	assert.Equal(t, "", r.Archive.SecretKey)
	assert.Equal(t, "h", r.Transfer.Host)
	assert.Equal(t, "p", cfg.Transfer.Password, "original is left untouched")
}
