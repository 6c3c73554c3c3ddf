package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port    int    `yaml:"port"`
		BaseURL string `yaml:"baseURL"`
	} `yaml:"server"`

	Vision struct {
		Model          string `yaml:"model"`
		MaxDimension   int    `yaml:"maxDimension"`
		Concurrency    int    `yaml:"concurrency"`
		Retries        int    `yaml:"retries"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		APIKey         string `yaml:"-"` // env only, never serialized or logged
	} `yaml:"vision"`

	Brand struct {
		PrimaryHex    string `yaml:"primaryHex"`
		SecondaryHex  string `yaml:"secondaryHex"`
		BannerPath    string `yaml:"bannerPath"`
		BusinessName  string `yaml:"businessName"`
		BusinessLine1 string `yaml:"businessLine1"`
		BusinessLine2 string `yaml:"businessLine2"`
	} `yaml:"brand"`

	Paths struct {
		OutputDir string `yaml:"outputDir"`
		CacheDir  string `yaml:"cacheDir"`
		IndexPath string `yaml:"indexPath"`
		PortalDB  string `yaml:"portalDB"`
	} `yaml:"paths"`

	Auth struct {
		Secret           string `yaml:"-"` // env only
		MagicLinkMinutes int    `yaml:"magicLinkMinutes"`
		SignedURLHours   int    `yaml:"signedURLHours"`
		SessionHours     int    `yaml:"sessionHours"`
	} `yaml:"auth"`

	Report struct {
		RepairKeywords string `yaml:"repairKeywords"`
	} `yaml:"report"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"-"` // env only
		From     string `yaml:"from"`
	} `yaml:"smtp"`
}

// Load reads config.yaml and overlays secrets and overrides from the
// environment. A .env file is honored; existing env vars win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.applyDefaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()

	if cfg.Vision.Concurrency < 1 {
		cfg.Vision.Concurrency = 1
	}
	if cfg.Vision.Retries < 0 {
		cfg.Vision.Retries = 0
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Server.Port = 8000
	c.Server.BaseURL = "http://localhost:8000"
	c.Vision.Model = "gpt-4o-mini"
	c.Vision.MaxDimension = 1600
	c.Vision.Concurrency = 3
	c.Vision.Retries = 3
	c.Vision.TimeoutSeconds = 60
	c.Brand.PrimaryHex = "#0b1e2e"
	c.Brand.SecondaryHex = "#113a5c"
	c.Brand.BannerPath = "assets/banner.png"
	c.Paths.OutputDir = "output"
	c.Paths.CacheDir = ".cache"
	c.Paths.IndexPath = "output/reports_index.json"
	c.Paths.PortalDB = "portal.db"
	c.Auth.MagicLinkMinutes = 30
	c.Auth.SignedURLHours = 24
	c.Auth.SessionHours = 12
	c.SMTP.Host = "localhost"
	c.SMTP.Port = 587
	c.SMTP.From = "noreply@inspection-portal.com"
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		c.Vision.APIKey = v
	}
	if v := os.Getenv("VISION_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := os.Getenv("ANALYSIS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Vision.Concurrency = n
		}
	}
	if v := os.Getenv("ANALYSIS_MAX_PX"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Vision.MaxDimension = n
		}
	}
	if v := os.Getenv("ANALYSIS_CACHE_DIR"); v != "" {
		c.Paths.CacheDir = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("PORTAL_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("REPAIR_KEYWORDS"); v != "" {
		c.Report.RepairKeywords = v
	}
}

// RepairKeywordList returns the configured repair/action keywords used for
// the important-repair flag, falling back to the built-in list.
func (c *Config) RepairKeywordList() []string {
	raw := c.Report.RepairKeywords
	if raw == "" {
		raw = "repair,replace,fix,seal,reseal,re-caulk,caulk,secure,anchor,tighten,patch,service,clean,paint,repaint"
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
