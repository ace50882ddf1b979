// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/heinrichb/stocksync/pkg/utils"
)

/*
Global Verbose flag.

This flag determines whether verbose output is enabled.
It is set in `main.go` and used throughout the application.
*/
var Verbose bool

// Default ports per transfer protocol.
const (
	defaultFTPPort  = 21
	defaultSFTPPort = 22
)

// TransferConfig describes where the stock feed is fetched from.

// Fields:
//   - Protocol:       "ftp" (default) or "sftp".
//   - Host:           File server hostname or IP.
//   - Port:           Server port; 21 for FTP and 22 for SFTP when unset.
//   - Username:       Login user.
//   - Password:       Login password (FTP, or SFTP password auth).
//   - PrivateKeyPath: SSH private key for SFTP key auth.
//   - RemotePath:     Path of the feed on the server.
type TransferConfig struct {
	Protocol       string `json:"protocol"`
	Host           string `json:"host"`
	Port           int    `json:"port"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	PrivateKeyPath string `json:"privateKeyPath"`
	RemotePath     string `json:"remotePath"`
}

// CatalogConfig points at the storefront products endpoint.
type CatalogConfig struct {
	BaseURL string `json:"baseUrl"`
	Token   string `json:"token"`
}

// SyncConfig toggles the reconciliation policies.

// Fields:
//   - CreateOnLookupError:   Treat a failed product lookup as "not found" and create.
//   - CreateMissingVariants: Create feed variants that an existing product lacks.
type SyncConfig struct {
	CreateOnLookupError   bool `json:"createOnLookupError"`
	CreateMissingVariants bool `json:"createMissingVariants"`
}

// StorageConfig controls local files.

// Fields:
//   - FeedPath:   Where the downloaded feed is written.
//   - SavePath:   Directory for run reports.
//   - SaveReport: Write a JSON run report after each run.
type StorageConfig struct {
	FeedPath   string `json:"feedPath"`
	SavePath   string `json:"savePath"`
	SaveReport bool   `json:"saveReport"`
}

// ArchiveConfig enables uploading each downloaded feed to S3-compatible storage.
type ArchiveConfig struct {
	Enabled      bool   `json:"enabled"`
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	Region       string `json:"region"`
	Endpoint     string `json:"endpoint"`
	AccessKey    string `json:"accessKey"`
	SecretKey    string `json:"secretKey"`
	UsePathStyle bool   `json:"usePathStyle"`
}

// LogConfig selects the log encoding: "console" (default) or "json".
type LogConfig struct {
	Format string `json:"format"`
}

// Config holds configuration data used by the stocksync CLI.
type Config struct {
	Version  string         `json:"version"`
	Transfer TransferConfig `json:"transfer"`
	Catalog  CatalogConfig  `json:"catalog"`
	Sync     SyncConfig     `json:"sync"`
	Storage  StorageConfig  `json:"storage"`
	Archive  ArchiveConfig  `json:"archive"`
	Log      LogConfig      `json:"log"`
}

/*
ConfigOverride represents a partial configuration used for overriding values.
All fields are pointers, so that nil indicates "no override" while non-nil
values replace existing configuration.
*/
type ConfigOverride struct {
	Version *string

	Transfer struct {
		Protocol       *string
		Host           *string
		Port           *int
		Username       *string
		Password       *string
		PrivateKeyPath *string
		RemotePath     *string
	}

	Catalog struct {
		BaseURL *string
		Token   *string
	}

	Storage struct {
		FeedPath *string
		SavePath *string
	}

	Archive struct {
		Bucket *string
	}

	Log struct {
		Format *string
	}
}

func (cfg *Config) ApplyDefaults() {
	if cfg.Transfer.Protocol == "" {
		cfg.Transfer.Protocol = "ftp"
	}
	if cfg.Transfer.Port == 0 {
		if cfg.Transfer.Protocol == "sftp" {
			cfg.Transfer.Port = defaultSFTPPort
		} else {
			cfg.Transfer.Port = defaultFTPPort
		}
	}
	if cfg.Transfer.RemotePath == "" {
		cfg.Transfer.RemotePath = "/Stock.txt"
	}
	if cfg.Storage.FeedPath == "" {
		cfg.Storage.FeedPath = filepath.Join(os.TempDir(), "stock.txt")
	}
	if cfg.Storage.SavePath == "" {
		cfg.Storage.SavePath = "output/"
	}
	if cfg.Archive.Prefix == "" {
		cfg.Archive.Prefix = "feeds/"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Configured reports whether a file server is set up to download from.
func (t TransferConfig) Configured() bool {
	return t.Host != ""
}

/*
Validate reports the first missing setting a run cannot do without.
An empty transfer host is allowed; the run then works from the local feed.
*/
func (cfg *Config) Validate() error {
	switch {
	case cfg.Transfer.Protocol != "ftp" && cfg.Transfer.Protocol != "sftp":
		return fmt.Errorf("transfer.protocol must be ftp or sftp, got %q", cfg.Transfer.Protocol)
	case cfg.Catalog.BaseURL == "":
		return errors.New("catalog.baseUrl (BIGCOMMERCE_API_URL) is required")
	case cfg.Catalog.Token == "":
		return errors.New("catalog.token (BIGCOMMERCE_TOKEN) is required")
	case cfg.Archive.Enabled && cfg.Archive.Bucket == "":
		return errors.New("archive.bucket is required when archiving is enabled")
	}
	return nil
}

/*
Load builds the configuration from an optional JSON file and the environment.

Parameters:
  - filePath: The path to the JSON configuration file. Empty means environment only.

Values from `.env` (when present) and the process environment override the file;
defaults fill whatever is still unset.

Returns:
  - A Config pointer populated from the file, environment and defaults.
  - An error if a named file is missing, invalid JSON, or an env value is malformed.
*/
func Load(filePath string) (*Config, error) {
	var cfg Config

	if filePath != "" {
		data, err := utils.LoadFromFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("config file %s: %w", filePath, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		utils.PrintColored("Loaded config from: ", filePath, utils.ColorSuccess)
	}

	// A missing .env is normal in production, where the environment is set by the scheduler.
	_ = godotenv.Load()

	override, err := EnvOverride(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.OverrideConfig(override)
	cfg.ApplyDefaults()

	if Verbose {
		utils.PrintNonEmptyFields("", cfg.Redacted())
	}

	return &cfg, nil
}

/*
EnvOverride reads the recognised environment variables through getenv.
Unset or empty variables produce no override.
*/
func EnvOverride(getenv func(string) string) (ConfigOverride, error) {
	var o ConfigOverride

	str := func(key string) *string {
		if v := getenv(key); v != "" {
			return &v
		}
		return nil
	}

	o.Transfer.Protocol = str("FTP_PROTOCOL")
	o.Transfer.Host = str("FTP_HOST")
	o.Transfer.Username = str("FTP_USER")
	o.Transfer.Password = str("FTP_PASS")
	o.Transfer.PrivateKeyPath = str("FTP_KEY_PATH")
	o.Transfer.RemotePath = str("FTP_FILE_PATH")
	o.Catalog.BaseURL = str("BIGCOMMERCE_API_URL")
	o.Catalog.Token = str("BIGCOMMERCE_TOKEN")
	o.Storage.FeedPath = str("STOCKSYNC_FEED_PATH")
	o.Storage.SavePath = str("STOCKSYNC_SAVE_PATH")
	o.Archive.Bucket = str("ARCHIVE_BUCKET")
	o.Log.Format = str("STOCKSYNC_LOG_FORMAT")

	if v := getenv("FTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return o, fmt.Errorf("invalid FTP_PORT %q: %w", v, err)
		}
		o.Transfer.Port = &port
	}

	return o, nil
}

/*
OverrideConfig applies any non-nil values from overrides into cfg.
*/
func (cfg *Config) OverrideConfig(o ConfigOverride) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&cfg.Version, o.Version)

	set(&cfg.Transfer.Protocol, o.Transfer.Protocol)
	set(&cfg.Transfer.Host, o.Transfer.Host)
	if o.Transfer.Port != nil {
		cfg.Transfer.Port = *o.Transfer.Port
	}
	set(&cfg.Transfer.Username, o.Transfer.Username)
	set(&cfg.Transfer.Password, o.Transfer.Password)
	set(&cfg.Transfer.PrivateKeyPath, o.Transfer.PrivateKeyPath)
	set(&cfg.Transfer.RemotePath, o.Transfer.RemotePath)

	set(&cfg.Catalog.BaseURL, o.Catalog.BaseURL)
	set(&cfg.Catalog.Token, o.Catalog.Token)

	set(&cfg.Storage.FeedPath, o.Storage.FeedPath)
	set(&cfg.Storage.SavePath, o.Storage.SavePath)

	if o.Archive.Bucket != nil {
		cfg.Archive.Bucket = *o.Archive.Bucket
		cfg.Archive.Enabled = true
	}

	set(&cfg.Log.Format, o.Log.Format)
}

// Redacted returns a copy of cfg with credentials masked, for printing.
func (cfg Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	cfg.Transfer.Password = mask(cfg.Transfer.Password)
	cfg.Catalog.Token = mask(cfg.Catalog.Token)
	cfg.Archive.SecretKey = mask(cfg.Archive.SecretKey)
	return cfg
}
