package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sortme/internal/category"
	"sortme/internal/config"
	"sortme/internal/llm"
	"sortme/internal/logging"
	"sortme/internal/session"
)

const (
	engineVersion = "0.1.0"
	apiVersion    = "1"
)

type app struct {
	cfg     *config.Config
	dataDir string
	logger  zerolog.Logger
	closeFn func() error

	flagRoot  string
	flagDebug bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sortme",
		Short: "Organize a folder with plain-language commands",
		Long: `sortme profiles the files in one folder, places what simple rules can
place, and asks a locally hosted model about the rest. All changes stay
inside that folder.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closeFn != nil {
				return a.closeFn()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.flagRoot, "root", "r", "", "folder to organize (default: current directory)")
	root.PersistentFlags().BoolVar(&a.flagDebug, "debug", false, "verbose logging")

	root.AddCommand(
		newScanCmd(a),
		newOrganizeCmd(a),
		newAskCmd(a),
		newCategoriesCmd(a),
		newNotesCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	a.dataDir = dataDir

	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}
	if a.flagRoot != "" {
		cfg.Root = a.flagRoot
	}
	if cfg.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfg.Root = wd
	}
	if a.flagDebug {
		cfg.Logging.Debug = true
	}
	a.cfg = cfg

	// The serve command owns stdout for JSON-RPC; keep its console quiet.
	console := cfg.Logging.Console && cmd.Name() != "serve"
	fl, err := logging.New(dataDir, cfg.Logging.Debug, console)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	a.logger = fl.Logger
	a.closeFn = fl.Close
	return nil
}

func (a *app) openCategories() (*category.Store, error) {
	return category.Open(filepath.Join(a.dataDir, "categories.db"))
}

func (a *app) newSession(cats *category.Store) (*session.Session, error) {
	gen := llm.New(llm.Options{
		Endpoint:      a.cfg.Model.Endpoint,
		Model:         a.cfg.Model.Name,
		ContextTokens: a.cfg.Model.ContextTokens,
		Timeout:       a.cfg.Model.RequestTimeout(),
		Logger:        a.logger,
	})
	return session.New(*a.cfg, gen, cats, a.logger)
}
