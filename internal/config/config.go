// Package config loads foldersort's configuration from an optional YAML
// base file and then layers environment-variable overrides on top: a
// Default() literal, optionally replaced field-by-field by a YAML file,
// then finally overridden by explicit os.Getenv checks so a deployment
// never has to edit a file to change a single endpoint.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"foldersort/internal/errkind"
)

// ClassifierKind selects whether files are classified by rules alone or
// by rules-then-AI.
type ClassifierKind string

const (
	ClassifierManual ClassifierKind = "manual"
	ClassifierAI     ClassifierKind = "ai"
)

// Mode selects the orchestrator operation driven by the CLI.
type Mode string

const (
	ModeScan     Mode = "scan"
	ModeClassify Mode = "classify"
	ModeMove     Mode = "move"
	ModeReport   Mode = "report"
	ModeAll      Mode = "all"
)

// AIEndpoint describes one configured AI backend instance.
type AIEndpoint struct {
	URL     string `yaml:"url"`
	Workers int    `yaml:"workers"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

// Config holds every setting the pipeline needs. A single value is
// constructed once (Load) and passed explicitly to every component that
// needs it; nothing here is a package-level singleton.
type Config struct {
	SourceRoots []string `yaml:"source_roots"`
	TargetRoot  string   `yaml:"target_root"`
	ReportDir   string   `yaml:"report_dir"`
	DBPath      string   `yaml:"db_path"`

	CategoriesPath string `yaml:"categories_path"`
	RulesPath      string `yaml:"rules_path"`

	Classifier ClassifierKind `yaml:"classifier"`
	AIEndpoints []AIEndpoint  `yaml:"ai_endpoints"`

	AITimeout       time.Duration `yaml:"ai_timeout"`
	AIRetries       int           `yaml:"ai_retries"`
	AIThrottle      time.Duration `yaml:"ai_throttle"`
	AIFailureCooldown time.Duration `yaml:"ai_failure_cooldown"`

	BatchSize   int `yaml:"batch_size"`
	ScanWorkers int `yaml:"scan_workers"`

	ContentPeekBytes int `yaml:"content_peek_bytes"`

	StripDirs          []string `yaml:"strip_dirs"`
	SourceWrapperRegex string   `yaml:"source_wrapper_regex"`

	// MetricsAddr, if non-empty, serves the classifier multiplexer's
	// per-worker Prometheus gauges on this address (e.g. ":9090") for
	// the duration of a classify run. Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	Mode  Mode `yaml:"mode"`
	Debug bool `yaml:"debug"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		ReportDir:         "./report",
		DBPath:            "./foldersort.db",
		CategoriesPath:    "./categories.csv",
		RulesPath:         "./rules.csv",
		Classifier:        ClassifierManual,
		AITimeout:         60 * time.Second,
		AIRetries:         3,
		AIThrottle:        200 * time.Millisecond,
		AIFailureCooldown: 30 * time.Second,
		BatchSize:         500,
		ScanWorkers:       8,
		ContentPeekBytes:  4096,
		Mode:              ModeAll,
	}
}

// Load builds a Config starting from Default(), optionally merges a YAML
// file at path (if non-empty and present), then applies environment
// overrides. A missing yamlPath is not an error; a malformed one is.
func Load(yamlPath string) (*Config, error) {
	cfg := Default()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file %s: %w: %w", yamlPath, errkind.Config, err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w: %w", yamlPath, errkind.Config, err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FOLDERSORT_SOURCE_ROOTS"); v != "" {
		cfg.SourceRoots = splitList(v)
	}
	if v := os.Getenv("FOLDERSORT_TARGET_ROOT"); v != "" {
		cfg.TargetRoot = v
	}
	if v := os.Getenv("FOLDERSORT_REPORT_DIR"); v != "" {
		cfg.ReportDir = v
	}
	if v := os.Getenv("FOLDERSORT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("FOLDERSORT_CATEGORIES_PATH"); v != "" {
		cfg.CategoriesPath = v
	}
	if v := os.Getenv("FOLDERSORT_RULES_PATH"); v != "" {
		cfg.RulesPath = v
	}
	if v := os.Getenv("FOLDERSORT_CLASSIFIER"); v != "" {
		cfg.Classifier = ClassifierKind(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("FOLDERSORT_AI_ENDPOINTS"); v != "" {
		cfg.AIEndpoints = parseEndpoints(v)
	}
	if v := os.Getenv("FOLDERSORT_AI_API_KEY"); v != "" {
		for i := range cfg.AIEndpoints {
			if cfg.AIEndpoints[i].APIKey == "" {
				cfg.AIEndpoints[i].APIKey = v
			}
		}
	}
	if v := os.Getenv("FOLDERSORT_AI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AITimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("FOLDERSORT_AI_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AIRetries = n
		}
	}
	if v := os.Getenv("FOLDERSORT_AI_THROTTLE_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AIThrottle = time.Duration(f * float64(time.Second))
		}
	}
	if v := os.Getenv("FOLDERSORT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchSize = n
		}
	}
	if v := os.Getenv("FOLDERSORT_SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ScanWorkers = n
		}
	}
	if v := os.Getenv("FOLDERSORT_CONTENT_PEEK_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ContentPeekBytes = n
		}
	}
	if v := os.Getenv("FOLDERSORT_STRIP_DIRS"); v != "" {
		cfg.StripDirs = splitList(v)
	}
	if v := os.Getenv("FOLDERSORT_SOURCE_WRAPPER_REGEX"); v != "" {
		cfg.SourceWrapperRegex = v
	}
	if v := os.Getenv("FOLDERSORT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("FOLDERSORT_MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("FOLDERSORT_DEBUG"); v != "" {
		cfg.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// parseEndpoints parses "url|workers|model[|apikey];url2|workers2|model2".
func parseEndpoints(v string) []AIEndpoint {
	var out []AIEndpoint
	for _, part := range strings.Split(v, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, "|")
		ep := AIEndpoint{Workers: 1}
		if len(fields) > 0 {
			ep.URL = strings.TrimSpace(fields[0])
		}
		if len(fields) > 1 {
			if n, err := strconv.Atoi(strings.TrimSpace(fields[1])); err == nil && n > 0 {
				ep.Workers = n
			}
		}
		if len(fields) > 2 {
			ep.Model = strings.TrimSpace(fields[2])
		}
		if len(fields) > 3 {
			ep.APIKey = strings.TrimSpace(fields[3])
		}
		if ep.URL != "" {
			out = append(out, ep)
		}
	}
	return out
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects configuration that cannot possibly run, per the
// "configuration error is fatal at startup" rule.
func (c *Config) Validate() error {
	if len(c.SourceRoots) == 0 {
		return fmt.Errorf("no source roots configured: %w", errkind.Config)
	}
	if c.TargetRoot == "" {
		return fmt.Errorf("no target root configured: %w", errkind.Config)
	}
	if c.Classifier == ClassifierAI && len(c.AIEndpoints) == 0 {
		return fmt.Errorf("classifier kind is ai but no AI endpoints configured: %w", errkind.Config)
	}
	switch c.Mode {
	case ModeScan, ModeClassify, ModeMove, ModeReport, ModeAll:
	default:
		return fmt.Errorf("unknown mode %q: %w", c.Mode, errkind.Config)
	}
	return nil
}
