package config

import (
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Site  SiteConfig  `yaml:"site"`
	Build BuildConfig `yaml:"build"`
	Feed  FeedConfig  `yaml:"feed"`
}

type SiteConfig struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Author      string `yaml:"author"`
	SiteURL     string `yaml:"site_url"`
	Theme       string `yaml:"theme"`
	Language    string `yaml:"language"`
	Description string `yaml:"description"`
	Recent      int    `yaml:"recent"`
}

type BuildConfig struct {
	SourceDir     string    `yaml:"source_dir"`
	PublicDir     string    `yaml:"public_dir"`
	ThemeDir      string    `yaml:"theme_dir"`
	BasePath      string    `yaml:"base_path"`
	IncludeDrafts bool      `yaml:"include_drafts"`
	Now           time.Time `yaml:"-"`
}

type FeedConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title:    "Gambit",
			SiteURL:  "http://localhost:8080",
			Theme:    "default",
			Language: "en",
			Recent:   10,
		},
		Build: BuildConfig{
			SourceDir:     "content",
			PublicDir:     "public",
			ThemeDir:      "themes",
			BasePath:      "",
			IncludeDrafts: false,
			Now:           time.Now(),
		},
		Feed: FeedConfig{
			Enabled: true,
			Size:    20,
		},
	}
}

func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.Site,
		validation.Field(&c.Site.Title, validation.Required),
		validation.Field(&c.Site.SiteURL, validation.Required, is.URL),
		validation.Field(&c.Site.Theme, validation.Required),
		validation.Field(&c.Site.Recent, validation.Min(1), validation.Max(100)),
	); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Build,
		validation.Field(&c.Build.SourceDir, validation.Required),
		validation.Field(&c.Build.PublicDir, validation.Required),
		validation.Field(&c.Build.ThemeDir, validation.Required),
		validation.Field(&c.Build.BasePath, validation.By(validBasePath)),
	); err != nil {
		return err
	}
	return validation.ValidateStruct(&c.Feed,
		validation.Field(&c.Feed.Size, validation.Min(1), validation.Max(500)),
	)
}

func validBasePath(value interface{}) error {
	bp := strings.TrimSpace(value.(string))
	if bp == "" {
		return nil
	}
	if !strings.HasPrefix(bp, "/") {
		return validation.NewError("validation_base_path", "must start with '/'")
	}
	if strings.HasSuffix(bp, "/") && bp != "/" {
		return validation.NewError("validation_base_path", "must not end with '/'")
	}
	return nil
}

func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	// 直接 Unmarshal 到 cfg 上：文件中写到的字段覆盖默认值，其他字段保留 Default
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if cfg.Build.Now.IsZero() {
		cfg.Build.Now = time.Now()
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func LoadOrDefault(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Validate(); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Build.Now.IsZero() {
		cfg.Build.Now = time.Now()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
