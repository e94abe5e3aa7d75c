package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
	"github.com/turtacn/PatentSentry/internal/config"
	"github.com/turtacn/PatentSentry/internal/infrastructure/cache/memory"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
	"github.com/turtacn/PatentSentry/pkg/client"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
	ServerAddr   string
}

// ServiceFactory builds the analysis service on first use. Commands that only
// run the term engine never call it.
type ServiceFactory func(cfg *config.Config, logger logging.Logger) (analysis.Service, error)

// CLIContext carries initialised dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration
	ServerAddr   string

	newService ServiceFactory
}

// Service returns a client for --server when set and otherwise builds a
// local analysis service.
func (c *CLIContext) Service() (analysis.Service, error) {
	if c.ServerAddr != "" {
		return client.NewClient(c.ServerAddr,
			client.WithLogger(c.Logger),
			client.WithTimeout(c.Timeout),
			client.WithUserAgent("sentry/"+Version))
	}
	return c.newService(c.Config, c.Logger)
}

// NewRootCommand creates the sentry root command with every subcommand.
func NewRootCommand() *cobra.Command {
	return newRootCommand(DefaultServiceFactory)
}

func newRootCommand(factory ServiceFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sentry",
		Short: "PatentSentry: US patent term and maintenance fee calculator",
		Long: "sentry computes US patent expiration dates and maintenance-fee windows\n" +
			"from filing and grant dates, and can analyse granted patents fetched\n" +
			"from the USPTO PatentsView API.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, factory)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: environment and built-in defaults)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides log.level")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json, table)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout for remote lookups")
	pf.StringVar(&opts.ServerAddr, "server", "", "PatentSentry API server address; analyze runs locally when empty")

	cmd.AddCommand(
		NewExpiryCmd(),
		NewFeesCmd(),
		NewAnalyzeCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions, factory ServiceFactory) error {
	switch opts.OutputFormat {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.Newf(errors.ErrCodeBadRequest, "invalid output format %q; expected text|json|table", opts.OutputFormat)
	}

	cfg, err := config.LoadOrEnv(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	if opts.LogLevel != "" {
		if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
			return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid --log-level")
		}
		cfg.Log.Level = opts.LogLevel
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
		ServerAddr:   opts.ServerAddr,
		newService:   factory,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// DefaultServiceFactory wires the PatentsView client and an in-process
// result cache. It fails when no PatentsView API key is configured.
func DefaultServiceFactory(cfg *config.Config, logger logging.Logger) (analysis.Service, error) {
	if !cfg.PatentsViewConfigured() {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "PatentsView API key not configured").
			WithDetail("set patentsview.api_key or SENTRY_PATENTSVIEW_API_KEY")
	}
	source, err := patentsview.NewClient(patentsview.Config{
		BaseURL:       cfg.PatentsView.BaseURL,
		APIKey:        cfg.PatentsView.APIKey,
		Timeout:       cfg.PatentsView.Timeout,
		MaxRetries:    cfg.PatentsView.MaxRetries,
		RetryWait:     cfg.PatentsView.RetryWait,
		RatePerMinute: cfg.PatentsView.RatePerMinute,
	}, patentsview.WithLogger(logger), patentsview.WithUserAgent("sentry/"+Version))
	if err != nil {
		return nil, err
	}
	return analysis.NewService(analysis.Config{
		Source:               source,
		Cache:                memory.New(cfg.Cache.MaxEntries, cfg.Cache.TTL),
		CacheTTL:             cfg.Cache.TTL,
		EnrichmentConfigured: cfg.EnrichmentConfigured(),
		Logger:               logger,
	}), nil
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute runs the CLI and prints any error to stderr.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, versionInfo{Version: Version, Commit: GitCommit, BuildDate: BuildDate})
		},
	}
}
