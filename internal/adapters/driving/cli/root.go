// Package cli provides the diligence command-line interface.
package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services wired by main.
var (
	sessionManager  driving.SessionManager
	settingsService driving.SettingsService
	metricsHandler  http.Handler
	watchSettle     time.Duration
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "diligence",
	Short: "Ask cited questions about property diligence documents",
	Long: `Diligence indexes the documents of a single property deal (inspection
reports, seller disclosures, appraisals, HOA packets, contractor bids) and
answers questions only from what they say, citing the document and page.

It can also write an investment memo covering condition, financial, legal
and HOA risk with a Buy, Cautious Buy or Pass recommendation.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Config holds the services the commands run against.
type Config struct {
	Sessions driving.SessionManager
	Settings driving.SettingsService

	// Metrics is served next to the MCP endpoint in HTTP mode. May be nil.
	Metrics http.Handler

	// WatchSettle is how long a watched file must be quiet before upload.
	WatchSettle time.Duration
}

// SetConfig sets the services used by all commands.
func SetConfig(cfg *Config) {
	if cfg == nil {
		cfg = &Config{}
	}
	sessionManager = cfg.Sessions
	settingsService = cfg.Settings
	metricsHandler = cfg.Metrics
	watchSettle = cfg.WatchSettle
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
}

var (
	errSessionsNotConfigured = errors.New("session manager not configured")
	errSettingsNotConfigured = errors.New("settings service not configured")
)
