// Package orchestrator wires the full pipeline: it assembles the
// catalog store, rule table, category catalog, preview registry, and AI
// backend fleet from a config.Config and drives the
// scan/classify/report/move modes over them.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"foldersort/internal/aiclient"
	"foldersort/internal/catalog"
	"foldersort/internal/categories"
	"foldersort/internal/classify"
	"foldersort/internal/config"
	"foldersort/internal/errkind"
	"foldersort/internal/logging"
	"foldersort/internal/multiplex"
	"foldersort/internal/pathsynth"
	"foldersort/internal/preview"
	"foldersort/internal/report"
	"foldersort/internal/rules"
)

// Orchestrator holds every collaborator a scan/classify/report/move run
// needs, built once from a Config and reused across modes.
type Orchestrator struct {
	Cfg        *config.Config
	Store      *catalog.Store
	Rules      *rules.Table
	Categories *categories.Catalog
	Preview    *preview.Registry
	AI         classify.AI // nil in manual mode
	Multiplex  *multiplex.Multiplexer
	Metrics    *report.MetricsServer // nil unless cfg.MetricsAddr is set and AI is in use
	Classify   *classify.Orchestrator

	// RunID correlates every log line emitted by one invocation.
	RunID string
}

// Build assembles an Orchestrator from cfg: opens the catalog DB, loads
// the rule table and category catalog, builds the preview registry, and
// -- unless cfg.Classifier is "manual" -- builds an AI backend fleet
// behind a multiplexer (a single configured worker is also wrapped in
// one rather than used directly). A bad rule
// file or a required-but-unreachable AI fleet aborts here, before any
// work begins.
func Build(ctx context.Context, cfg *config.Config) (*Orchestrator, error) {
	runID := uuid.NewString()
	logging.Get(logging.CategoryOrchestrate).Info("run %s: building collaborators", runID)

	store, err := catalog.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	ruleTable, err := rules.LoadFile(cfg.RulesPath)
	if err != nil {
		store.Close()
		return nil, err
	}
	if !ruleTable.EnsureAvailable() && cfg.Classifier != config.ClassifierManual {
		store.Close()
		return nil, fmt.Errorf("rule table has load errors and classifier is not manual: %w", errkind.RuleLoad)
	}

	catCatalog, err := categories.LoadFile(cfg.CategoriesPath)
	if err != nil {
		store.Close()
		return nil, err
	}

	previewRegistry := preview.NewRegistry()
	previewRegistry.Register(preview.OfficeExtractor{})
	previewRegistry.Register(preview.EmailExtractor{})
	previewRegistry.Register(preview.PDFExtractor{})
	previewRegistry.Register(preview.OCRExtractor{})
	previewRegistry.Register(preview.EbookExtractor{})

	o := &Orchestrator{
		Cfg:        cfg,
		Store:      store,
		Rules:      ruleTable,
		Categories: catCatalog,
		Preview:    previewRegistry,
		RunID:      runID,
	}

	if cfg.Classifier == config.ClassifierAI {
		backends, err := buildBackends(ctx, cfg)
		if err != nil {
			store.Close()
			return nil, err
		}
		mp := multiplex.New(backends, cfg.AIFailureCooldown, 0)
		o.Multiplex = mp
		o.AI = mp

		if cfg.MetricsAddr != "" {
			o.Metrics = report.NewMetricsServer(mp)
			o.Metrics.Start(cfg.MetricsAddr, 10*time.Second)
		}
	}

	var wrapper pathsynth.Matcher
	if cfg.SourceWrapperRegex != "" {
		re, err := regexp.Compile(cfg.SourceWrapperRegex)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("compiling source wrapper regex %q: %w: %w", cfg.SourceWrapperRegex, errkind.Config, err)
		}
		wrapper = re
	}

	o.Classify = &classify.Orchestrator{
		Store:      store,
		Rules:      ruleTable,
		Categories: catCatalog,
		Preview:    previewRegistry,
		AI:         o.AI,
		Opts: classify.Options{
			SourceRoots:         cfg.SourceRoots,
			StripDirs:           cfg.StripDirs,
			SourceWrapperRegexp: wrapper,
			ContentPeekBytes:    cfg.ContentPeekBytes,
			RulesOnly:           cfg.Classifier == config.ClassifierManual,
			Concurrency:         cfg.ScanWorkers,
		},
	}

	return o, nil
}

// Close releases every collaborator that owns an external resource.
func (o *Orchestrator) Close() error {
	var first error
	if o.Metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.Metrics.Shutdown(ctx); err != nil {
			first = err
		}
	}
	if o.Multiplex != nil {
		if err := o.Multiplex.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := o.Store.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// buildBackends constructs one aiclient.Backend per configured worker
// slot across every endpoint: an endpoint URL prefixed with "gemini:" or
// "genai:" selects the Gemini SDK backend; everything else is probed
// with aiclient.Detect to pick the native or OpenAI-compatible HTTP
// adapter.
func buildBackends(ctx context.Context, cfg *config.Config) ([]aiclient.Backend, error) {
	var backends []aiclient.Backend
	for _, ep := range cfg.AIEndpoints {
		workers := ep.Workers
		if workers <= 0 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			backend, err := buildBackend(ctx, ep, cfg)
			if err != nil {
				return nil, err
			}
			backends = append(backends, backend)
		}
	}
	if len(backends) == 0 {
		return nil, fmt.Errorf("classifier kind is ai but no backends could be built: %w", errkind.ClassifierUnavailable)
	}
	return backends, nil
}

func buildBackend(ctx context.Context, ep config.AIEndpoint, cfg *config.Config) (aiclient.Backend, error) {
	switch {
	case strings.HasPrefix(ep.URL, "gemini:"), strings.HasPrefix(ep.URL, "genai:"):
		apiKey := ep.APIKey
		if apiKey == "" {
			apiKey = strings.TrimPrefix(strings.TrimPrefix(ep.URL, "gemini:"), "genai:")
		}
		genCfg := aiclient.DefaultGenAIConfig()
		genCfg.APIKey = apiKey
		if ep.Model != "" {
			genCfg.Model = ep.Model
		}
		genCfg.MaxAttempts = cfg.AIRetries
		genCfg.ThrottleInterval = cfg.AIThrottle
		return aiclient.NewGenAIClient(ctx, genCfg)
	default:
		flavor := aiclient.Detect(ctx, ep.URL, cfg.AITimeout)
		if flavor == aiclient.FlavorNative {
			nc := aiclient.DefaultNativeConfig()
			nc.BaseURL, nc.Model, nc.Timeout, nc.MaxAttempts, nc.ThrottleInterval = ep.URL, ep.Model, cfg.AITimeout, cfg.AIRetries, cfg.AIThrottle
			return aiclient.NewNativeClient(nc), nil
		}
		oc := aiclient.DefaultOpenAIConfig()
		oc.BaseURL, oc.APIKey, oc.Model, oc.Timeout, oc.MaxAttempts, oc.ThrottleInterval = ep.URL, ep.APIKey, ep.Model, cfg.AITimeout, cfg.AIRetries, cfg.AIThrottle
		return aiclient.NewOpenAIClient(oc), nil
	}
}
