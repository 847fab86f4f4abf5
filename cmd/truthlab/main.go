// Package main is the truthlab command: it serves the HTTP surface and runs
// scans, result management and certificate rendering from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easeaico/truthlab/internal/certificate"
	"github.com/easeaico/truthlab/internal/config"
	"github.com/easeaico/truthlab/internal/storage"
	"github.com/easeaico/truthlab/internal/types"
)

var version = "dev"

// globalFlags override the environment for a single invocation.
type globalFlags struct {
	provider string
	model    string
	database string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:          "truthlab",
		Short:        "Face scan personality reports",
		Long:         "truthlab scans a face, asks the analysis provider for a personality report, keeps the last result and renders it as a certificate.",
		Version:      version,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.provider, "provider", "", "analysis provider: gemini, openai or proxy (env ANALYSIS_PROVIDER)")
	pf.StringVar(&flags.model, "model", "", "analysis model (env ANALYSIS_MODEL)")
	pf.StringVar(&flags.database, "database", "", "result store: postgres URL, sqlite path or \"memory\" (env DATABASE_URL)")
	pf.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(flags),
		newScanCmd(flags),
		newShowCmd(flags),
		newResetCmd(flags),
		newCertificateCmd(flags),
	)
	return root
}

// load resolves the configuration once, installs the default logger and
// rejects settings the commands cannot run with.
func (f *globalFlags) load() (config.Config, error) {
	cfg := config.Load()
	if f.provider != "" {
		cfg.Provider = strings.ToLower(f.provider)
	}
	if f.model != "" {
		cfg.AnalysisModel = f.model
	}
	if f.database != "" {
		cfg.DatabaseURL = f.database
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.ValidateSettings(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	slog.Debug("configuration loaded", "provider", cfg.Provider, "model", cfg.AnalysisModel)
	return cfg, nil
}

func openResultStore(ctx context.Context, cfg config.Config) (*storage.ResultStore, func(), error) {
	kv, closeFn, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open result store: %w", err)
	}
	return storage.NewResultStore(kv, cfg.StorageKey), closeFn, nil
}

func certificateConfig(cfg config.Config) certificate.Config {
	c := certificate.DefaultConfig()
	c.Interstitial = cfg.Interstitial
	return c
}

func parseLang(raw string) (types.Language, error) {
	lang := types.Language(strings.ToLower(strings.TrimSpace(raw)))
	if !lang.Valid() {
		return "", fmt.Errorf("unsupported language %q, use hi or en", raw)
	}
	return lang, nil
}
