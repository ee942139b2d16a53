package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/franz/clipbox/internal/config"
	"github.com/franz/clipbox/internal/util"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := config.Load(viper.New())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DB != filepath.Join(dir, "videos.db") {
		t.Errorf("expected db resolved against the working dir, got %q", cfg.DB)
	}
	if len(cfg.Extensions) != len(config.DefaultExtensions) {
		t.Errorf("unexpected extensions %v", cfg.Extensions)
	}
	if cfg.Concurrency != 4 || cfg.CacheTTL().Seconds() != 60 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.PrimaryDrives) != 1 || cfg.PrimaryDrives[0] != "C:" {
		t.Errorf("unexpected primary drives %v", cfg.PrimaryDrives)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clipbox.toml")
	content := `
db = "lib/videos.db"
library_roots = ["D:\\videos", "~/clips"]
extensions = ["MP4", ".mkv"]
concurrency = 2

[player]
command = "mpv"
args = ["--fs"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CLIPBOX_CONCURRENCY", "8")

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CLIPBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(v)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Concurrency != 8 {
		t.Errorf("environment should override the file, got %d", cfg.Concurrency)
	}
	if cfg.LibraryRoots[0] != `D:\videos` {
		t.Errorf("drive paths must be kept, got %q", cfg.LibraryRoots[0])
	}
	if cfg.LibraryRoots[1] != filepath.Join(home, "clips") {
		t.Errorf("expected ~ expanded, got %q", cfg.LibraryRoots[1])
	}
	if cfg.Extensions[0] != ".mp4" || cfg.Extensions[1] != ".mkv" {
		t.Errorf("extensions not normalized: %v", cfg.Extensions)
	}
	if cfg.Player.Command != "mpv" || len(cfg.Player.Args) != 1 {
		t.Errorf("unexpected player %+v", cfg.Player)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero concurrency", func(c *config.Config) { c.Concurrency = 0 }, "Concurrency must be at least 1"},
		{"no extensions", func(c *config.Config) { c.Extensions = nil }, "Extensions must be at least 1"},
		{"bad extension", func(c *config.Config) { c.Extensions = []string{"mp4"} }, `must start with "."`},
		{"bad log level", func(c *config.Config) { c.EventLogLevel = "loud" }, "EventLogLevel must be one of"},
		{"empty root", func(c *config.Config) { c.LibraryRoots = []string{""} }, "LibraryRoots[0] must be set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, err.Error())
			}
		})
	}

	def := config.Default()
	if err := def.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestWriteTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "clipbox.toml")
	cfg := config.Default()
	cfg.LibraryRoots = []string{"/media/videos"}

	if err := config.WriteTOML(path, cfg, false); err != nil {
		t.Fatalf("WriteTOML failed: %v", err)
	}
	if err := config.WriteTOML(path, cfg, false); err == nil {
		t.Error("expected refusal to overwrite")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written file is not valid TOML: %v", err)
	}
	if decoded.LibraryRoots[0] != "/media/videos" || decoded.Concurrency != 4 {
		t.Errorf("unexpected round trip %+v", decoded)
	}
	if !strings.HasPrefix(string(data), "# clipbox configuration") {
		t.Error("expected the sample header")
	}
}

func TestExpandPath(t *testing.T) {
	if got, _ := config.ExpandPath(""); got != "" {
		t.Errorf("empty stays empty, got %q", got)
	}
	if got, _ := config.ExpandPath(`e:\clips`); got != `e:\clips` {
		t.Errorf("drive paths are kept, got %q", got)
	}
	got, err := config.ExpandPath("rel/dir")
	if err != nil || !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q (%v)", got, err)
	}
}
