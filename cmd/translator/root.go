package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricofy/catalog-translator/internal/config"
	"github.com/pricofy/catalog-translator/internal/logging"
	"github.com/pricofy/catalog-translator/internal/orchestrator"
	"github.com/pricofy/catalog-translator/internal/settings"
	"github.com/pricofy/catalog-translator/internal/store"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: config.Load()}

	root := &cobra.Command{
		Use:   "translator",
		Short: "Bulk-translate catalog products with OpenAI or DeepL",
		Long: `translator sends product titles, descriptions and slugs to a translation
provider in batches, enforces the glossary and writes the results back to the
product store, either as linked translations or over the source records.

Environment: ENVIRONMENT, LOG_LEVEL, SETTINGS_PATH, PRODUCTS_DB,
MULTILINGUAL_ENABLED, TRANSLATION_QUEUE_FUNCTION, API_TOKEN, TRANSLATOR_API_KEY.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfg.SettingsPath, "settings", opts.cfg.SettingsPath, "translation settings file (YAML)")
	pf.StringVar(&opts.cfg.ProductsDB, "db", opts.cfg.ProductsDB, "product database (SQLite)")
	pf.BoolVar(&opts.cfg.MultilingualEnabled, "multilingual", opts.cfg.MultilingualEnabled, "create linked translations instead of overwriting")
	pf.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(opts), newServeCmd(opts), newVersionCmd())
	return root
}

// components are the pieces every command needs.
type components struct {
	logger   *zap.Logger
	store    *store.SQLite
	settings settings.Source
	orch     *orchestrator.Orchestrator
}

func (o *options) build() (*components, error) {
	logger := logging.New(o.cfg.Environment, o.cfg.LogLevel)

	db, err := store.OpenSQLite(o.cfg.ProductsDB)
	if err != nil {
		return nil, err
	}
	src := settings.NewFileSource(o.cfg.SettingsPath)
	host := store.NewLanguageLinks(db, o.cfg.MultilingualEnabled)

	return &components{
		logger:   logger,
		store:    db,
		settings: src,
		orch:     orchestrator.New(db, host, orchestrator.WithLogger(logger)),
	}, nil
}

func (c *components) Close() {
	_ = c.logger.Sync()
	_ = c.store.Close()
}
