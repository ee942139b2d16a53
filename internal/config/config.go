// Package config loads clipbox settings from flags, CLIPBOX_* environment
// variables and an optional clipbox.toml/yaml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/franz/clipbox/internal/util"
)

// Player selects the external video player
type Player struct {
	// Command is the player executable; empty uses the OS default handler
	Command string   `mapstructure:"command" toml:"command"`
	Args    []string `mapstructure:"args" toml:"args"`
}

// Config holds every setting clipbox reads
type Config struct {
	DB              string   `mapstructure:"db" toml:"db" validate:"required"`
	LibraryRoots    []string `mapstructure:"library_roots" toml:"library_roots" validate:"dive,required"`
	SelectionFolder string   `mapstructure:"selection_folder" toml:"selection_folder"`
	Extensions      []string `mapstructure:"extensions" toml:"extensions" validate:"min=1,dive,startswith=."`

	// PrimaryDrives and PrimaryRoots decide which files count as C_DRIVE
	PrimaryDrives []string `mapstructure:"primary_drives" toml:"primary_drives" validate:"dive,required"`
	PrimaryRoots  []string `mapstructure:"primary_roots" toml:"primary_roots"`

	Concurrency     int    `mapstructure:"concurrency" toml:"concurrency" validate:"min=1,max=64"`
	EventLogDir     string `mapstructure:"event_log_dir" toml:"event_log_dir"`
	EventLogLevel   string `mapstructure:"event_log_level" toml:"event_log_level" validate:"oneof=debug info warning error"`
	BackupDir       string `mapstructure:"backup_dir" toml:"backup_dir" validate:"required"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" toml:"cache_ttl_seconds" validate:"min=0"`

	Player Player `mapstructure:"player" toml:"player"`
}

// DefaultExtensions are the video file types scanned when none are configured
var DefaultExtensions = []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		DB:              "videos.db",
		Extensions:      append([]string(nil), DefaultExtensions...),
		PrimaryDrives:   []string{"C:"},
		Concurrency:     4,
		EventLogDir:     "logs",
		EventLogLevel:   "info",
		BackupDir:       "backups",
		CacheTTLSeconds: 60,
	}
}

// SetDefaults registers the built-in values with v so that files and the
// environment only need to override what differs
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db", d.DB)
	v.SetDefault("library_roots", []string{})
	v.SetDefault("selection_folder", "")
	v.SetDefault("extensions", d.Extensions)
	v.SetDefault("primary_drives", d.PrimaryDrives)
	v.SetDefault("primary_roots", []string{})
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("event_log_dir", d.EventLogDir)
	v.SetDefault("event_log_level", d.EventLogLevel)
	v.SetDefault("backup_dir", d.BackupDir)
	v.SetDefault("cache_ttl_seconds", d.CacheTTLSeconds)
	v.SetDefault("player.command", "")
	v.SetDefault("player.args", []string{})
}

// Load decodes, normalizes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CacheTTL returns the analysis cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) normalize() error {
	var err error
	for _, p := range []*string{&c.DB, &c.SelectionFolder, &c.EventLogDir, &c.BackupDir} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	for _, list := range []*[]string{&c.LibraryRoots, &c.PrimaryRoots} {
		for i := range *list {
			if (*list)[i], err = ExpandPath((*list)[i]); err != nil {
				return err
			}
		}
	}

	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and required fields
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", util.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " must be set"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// ExpandPath resolves a leading ~ and makes relative paths absolute.
// Windows drive paths are only cleaned.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return p, nil
	}
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if p == "~" {
			p = home
		} else if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
			p = filepath.Join(home, p[2:])
		}
	}
	if hasDriveLetter(p) {
		return p, nil
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0] | 0x20
	return c >= 'a' && c <= 'z'
}

const sampleHeader = `# clipbox configuration
#
# Every key can also be set with a CLIPBOX_ environment variable,
# e.g. CLIPBOX_DB or CLIPBOX_CONCURRENCY.

`

// WriteTOML writes cfg as a TOML file. An existing file is only replaced
// when overwrite is set.
func WriteTOML(path string, cfg Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(sampleHeader), data...), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultConfigPath is where `clipbox config init` writes by default
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/clipbox/clipbox.toml")
}
