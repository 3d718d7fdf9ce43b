package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/siteaudit/internal/config"
	"github.com/nao1215/siteaudit/internal/crawler"
	"github.com/nao1215/siteaudit/internal/fetcher"
	"github.com/nao1215/siteaudit/internal/log"
	"github.com/nao1215/siteaudit/internal/model"
	"github.com/nao1215/siteaudit/internal/policy"
	"github.com/nao1215/siteaudit/internal/report"
	"github.com/nao1215/siteaudit/internal/storage"
)

// reportOptions holds output settings that do not belong in the crawl
// configuration.
type reportOptions struct {
	json     bool
	markdown bool
	output   string
	verbose  bool
}

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Crawl a website and audit it for SEO issues",
		Long: `Audit crawls a website breadth-first starting from the given URL and
checks every page against a set of SEO rules.

It reports:
- Broken internal links and images
- Duplicate titles, meta descriptions, and page content
- Missing titles, descriptions, and H1 headings
- Thin content, oversized pages, and orphan pages

Examples:
  # Audit a site with default settings
  siteaudit audit https://example.com

  # Deeper crawl with a larger page budget
  siteaudit audit --depth 5 --max-pages 500 https://example.com

  # Follow external links one hop off-site
  siteaudit audit --external https://example.com

  # Force headless rendering for JavaScript-heavy sites
  siteaudit audit --render force https://example.com

  # Output a Markdown report to a file
  siteaudit audit --markdown -o report.md https://example.com

Press Ctrl+C once to stop gracefully (partial results are kept),
twice to cancel immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: runAuditCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum crawl depth from the seed URL")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of concurrent page workers")
	cmd.Flags().Float64P("rate-limit", "r", config.DefaultRateLimit,
		"Maximum requests per second")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header for HTTP requests")
	cmd.Flags().Bool("ignore-robots", false,
		"Ignore robots.txt rules")

	// External link flags
	cmd.Flags().Bool("external", false,
		"Fetch external links for liveness checking")
	cmd.Flags().Int("max-external", config.DefaultMaxExternalLinks,
		"Maximum number of distinct external hosts to fetch")
	cmd.Flags().Int("external-depth", config.DefaultExternalDepth,
		"Maximum hops to follow past the seed host")

	// Rendering flags
	cmd.Flags().String("render", string(config.RenderAuto),
		"Headless rendering mode: off, force, or auto")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .siteaudit.yml in current or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, opts, err := buildAuditConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if opts.json && opts.markdown {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	// Set up structured logging with secret redaction
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return runAudit(ctx, cfg, opts, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildAuditConfig creates a Config from cobra command flags.
// Precedence, lowest to highest: defaults, config file, CLI flags.
func buildAuditConfig(cmd *cobra.Command, args []string) (*config.Config, *reportOptions, error) {
	cfg := config.NewConfig()

	configPathFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}

	// Apply the config file first so explicitly set flags win below.
	// If the user named a config file that does not exist, fail loudly;
	// a missing default config file is fine.
	configPath := config.FindConfigFile(configPathFlag)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if configPathFlag != "" {
		return nil, nil, fmt.Errorf("configuration file not found: %s", configPathFlag)
	}

	if cmd.Flags().Changed("depth") {
		if cfg.MaxDepth, err = cmd.Flags().GetInt("depth"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("max-pages") {
		if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("concurrency") {
		if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("rate-limit") {
		if cfg.RateLimit, err = cmd.Flags().GetFloat64("rate-limit"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("user-agent") {
		if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("ignore-robots") {
		ignore, err := cmd.Flags().GetBool("ignore-robots")
		if err != nil {
			return nil, nil, err
		}
		cfg.RespectRobotsTxt = !ignore
	}
	if cmd.Flags().Changed("external") {
		if cfg.FollowExternalLinks, err = cmd.Flags().GetBool("external"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("max-external") {
		if cfg.MaxExternalLinks, err = cmd.Flags().GetInt("max-external"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("external-depth") {
		if cfg.ExternalDepth, err = cmd.Flags().GetInt("external-depth"); err != nil {
			return nil, nil, err
		}
	}
	if cmd.Flags().Changed("render") {
		mode, err := cmd.Flags().GetString("render")
		if err != nil {
			return nil, nil, err
		}
		cfg.Render = config.RenderMode(mode)
	}

	cfg.SeedURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	opts := &reportOptions{verbose: cfg.Verbose}
	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, nil, err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, nil, err
	}
	if opts.output, err = cmd.Flags().GetString("output"); err != nil {
		return nil, nil, err
	}

	return cfg, opts, nil
}

// runAudit wires the crawl components together and executes the run.
func runAudit(ctx context.Context, cfg *config.Config, opts *reportOptions, logger *slog.Logger) error {
	store, err := storage.OpenSQLite(cfg.DBDir)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("database close failed", "error", err)
		}
	}()
	logger.Info("database opened", "path", store.Path())

	crawl := model.NewCrawl(cfg.SeedURL)
	crawl.Limits = model.CrawlLimits{
		MaxDepth:         cfg.MaxDepth,
		MaxPages:         cfg.MaxPages,
		Concurrency:      cfg.Concurrency,
		RateLimit:        cfg.RateLimit,
		MaxExternalLinks: cfg.MaxExternalLinks,
		ExternalDepth:    cfg.ExternalDepth,
	}
	if _, err := store.CreateCrawl(ctx, crawl); err != nil {
		return fmt.Errorf("failed to create crawl record: %w", err)
	}

	orch, err := newOrchestrator(cfg, crawl, store, logger)
	if err != nil {
		return err
	}

	// First interrupt stops gracefully, second cancels outright.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nStopping... press Ctrl+C again to cancel immediately")
		orch.Stop()
		<-sigCh
		orch.Cancel()
	}()

	fmt.Printf("Auditing %s...\n", cfg.SeedURL)
	startTime := time.Now()

	if err := orch.Run(ctx); err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Audit finished in %s (crawl ID: %s)\n\n", elapsed.Round(time.Millisecond), crawl.ID)

	return outputReport(opts, orch.Report())
}

// newOrchestrator builds the fetcher, policy, and batcher for one run.
func newOrchestrator(cfg *config.Config, crawl *model.Crawl, store *storage.SQLiteStore, logger *slog.Logger) (*crawler.Orchestrator, error) {
	seedURL, err := url.Parse(cfg.SeedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL %q: %w", cfg.SeedURL, err)
	}

	var renderer fetcher.Renderer
	if cfg.Render != config.RenderOff {
		renderer = fetcher.NewChromedpRenderer(cfg.RenderTimeout, cfg.UserAgent)
	}
	pageFetcher := fetcher.New(cfg, renderer, logger)

	var robots *policy.RobotsAgent
	if cfg.RespectRobotsTxt {
		robots = policy.NewRobotsAgent(&http.Client{Timeout: cfg.Timeout}, cfg.UserAgent, logger)
	}

	domainPolicy := policy.New(policy.Options{
		SeedHost:            seedURL.Host,
		RespectRobotsTxt:    cfg.RespectRobotsTxt,
		FollowExternalLinks: cfg.FollowExternalLinks,
		MaxExternalLinks:    cfg.MaxExternalLinks,
		ExternalDepth:       cfg.ExternalDepth,
		Robots:              robots,
	})

	crawlerOpts := crawler.Options{
		Config:  cfg,
		Crawl:   crawl,
		Fetcher: pageFetcher,
		Policy:  domainPolicy,
		Gateway: store,
		Batcher: storage.NewBatcher(store, cfg.EffectiveBatchSize(), logger),
		Logger:  logger,
	}
	if robots != nil {
		crawlerOpts.Sitemaps = robots
	}

	return crawler.New(crawlerOpts), nil
}

// outputReport outputs the audit report in the requested format.
func outputReport(opts *reportOptions, auditReport *model.AuditReport) error {
	var output *os.File
	if opts.output != "" {
		dir := filepath.Dir(opts.output)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(opts.output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case opts.json:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case opts.markdown:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(opts.verbose))
	}

	_, err := writer.Write(auditReport)
	return err
}
