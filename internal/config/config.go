package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const (
	DefaultMaxFileSize int64 = 100 << 20 // 100 MiB
	fileManagerPage          = "flmngr-example.html"
)

type Config struct {
	HTTPAddr      string
	StorageDir    string
	ReservedDir   string
	StaticDir     string
	FilesRoute    string
	PublicBaseURL string
	MaxFileSize   int64
	AuthToken     string
	LogLevel      string
	CORSOrigins   []string
	FileManager   FileManagerConfig
}

type FileManagerConfig struct {
	Template string // defaults to StaticDir/flmngr-example.html
	Upstream string // file manager backend, proxied under /flmngr when set
}

func Default() *Config {
	return &Config{
		HTTPAddr:      ":3041",
		StorageDir:    "./public/upload",
		ReservedDir:   "images",
		StaticDir:     "./test",
		FilesRoute:    "/files",
		PublicBaseURL: "http://localhost:3041/files",
		MaxFileSize:   DefaultMaxFileSize,
		LogLevel:      "info",
		CORSOrigins:   []string{"*"},
	}
}

// LoadDotEnv loads variables from the given .env files (or ./.env) into the
// process environment. A missing file is not an error; existing variables
// are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// FileManagerTemplate returns the configured template path, falling back to
// the page shipped in the static directory.
func (c *Config) FileManagerTemplate() string {
	if c.FileManager.Template != "" {
		return c.FileManager.Template
	}
	return filepath.Join(c.StaticDir, fileManagerPage)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var err error

	if c.HTTPAddr == "" {
		err = multierr.Append(err, errors.New("http address is required"))
	}
	if c.StorageDir == "" {
		err = multierr.Append(err, errors.New("storage directory is required"))
	}
	if c.AuthToken == "" {
		err = multierr.Append(err, errors.New("auth token is required"))
	}
	if c.MaxFileSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid max file size %d", c.MaxFileSize))
	}
	if !strings.HasPrefix(c.FilesRoute, "/") || c.FilesRoute == "/" {
		err = multierr.Append(err, fmt.Errorf("invalid files route %q", c.FilesRoute))
	}
	if _, perr := url.Parse(c.PublicBaseURL); perr != nil || c.PublicBaseURL == "" {
		err = multierr.Append(err, fmt.Errorf("invalid public base url %q", c.PublicBaseURL))
	}
	if up := c.FileManager.Upstream; up != "" {
		if u, perr := url.Parse(up); perr != nil || u.Scheme == "" || u.Host == "" {
			err = multierr.Append(err, fmt.Errorf("invalid file manager upstream %q", up))
		}
	}

	return err
}
