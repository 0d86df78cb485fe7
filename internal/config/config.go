package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tanq16/leccap/internal/utils"
	"gopkg.in/yaml.v3"
)

// Config mirrors the command line flags. Zero values mean "not set in the
// file" and are filled from Default.
type Config struct {
	LoginURL        string        `yaml:"login_url"`
	CatalogURL      string        `yaml:"catalog_url"`
	Extension       string        `yaml:"extension"`
	OutputDirectory string        `yaml:"output_directory"`
	Backend         string        `yaml:"backend"`
	ChromePath      string        `yaml:"chrome_path"`
	FirefoxPath     string        `yaml:"firefox_path"`
	Headless        *bool         `yaml:"headless"`
	NavTimeout      time.Duration `yaml:"nav_timeout"`
	Threaded        bool          `yaml:"threaded"`
	Workers         int           `yaml:"workers"`
	Strict          bool          `yaml:"strict"`
	User            string        `yaml:"user"`
	Cookie          string        `yaml:"cookie"`
	Token           string        `yaml:"token"`
	UserAgent       string        `yaml:"user_agent"`
	Proxy           string        `yaml:"proxy"`
	S3Mirror        string        `yaml:"s3_mirror"`
	AWSProfile      string        `yaml:"aws_profile"`
}

func Default() Config {
	headless := true
	return Config{
		LoginURL:        utils.DefaultLoginURL,
		CatalogURL:      utils.DefaultCatalogURL,
		Extension:       utils.DefaultExtension,
		OutputDirectory: ".",
		Backend:         "auto",
		Headless:        &headless,
		NavTimeout:      utils.DefaultNavTimeout,
		AWSProfile:      "default",
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "leccap", "config.yaml")
}

// Load reads path over the defaults. A missing file is only an error when
// required is set (an explicit --config).
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			log.Debug().Str("op", "config/config").Msgf("no config file at %s", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.merge(file)
	log.Debug().Str("op", "config/config").Msgf("loaded config from %s", path)
	return cfg, nil
}

func (c *Config) merge(o Config) {
	setString(&c.LoginURL, o.LoginURL)
	setString(&c.CatalogURL, o.CatalogURL)
	setString(&c.Extension, o.Extension)
	setString(&c.OutputDirectory, o.OutputDirectory)
	setString(&c.Backend, o.Backend)
	setString(&c.ChromePath, o.ChromePath)
	setString(&c.FirefoxPath, o.FirefoxPath)
	setString(&c.User, o.User)
	setString(&c.Cookie, o.Cookie)
	setString(&c.Token, o.Token)
	setString(&c.UserAgent, o.UserAgent)
	setString(&c.Proxy, o.Proxy)
	setString(&c.S3Mirror, o.S3Mirror)
	setString(&c.AWSProfile, o.AWSProfile)
	if o.Headless != nil {
		c.Headless = o.Headless
	}
	if o.NavTimeout > 0 {
		c.NavTimeout = o.NavTimeout
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	c.Threaded = c.Threaded || o.Threaded
	c.Strict = c.Strict || o.Strict
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c Config) IsHeadless() bool {
	return c.Headless == nil || *c.Headless
}
