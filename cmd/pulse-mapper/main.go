// Package main provides the CLI entrypoint for pulse-mapper.
//
// pulse-mapper works on YAML template libraries:
//   - check validates library documents and builds every template
//   - inspect prints the resolved namespaces of templates
//   - bind instantiates a template with concrete parameter values
//   - store saves templates to and loads them from a template store
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pulse-mapper/internal/config"
	"pulse-mapper/internal/logging"
	"pulse-mapper/internal/store"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	// Global flags
	cfgFile string
	verbose bool
	format  string

	cfg     *config.Config
	logger  *zap.Logger
	logOpts []zap.Option
}

func newApp() *app {
	return &app{logger: zap.NewNop()}
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pulse-mapper",
		Short: "Validate, inspect and bind composable pulse templates",
		Long: `pulse-mapper reads YAML libraries of pulse templates: leaf waveforms,
parameter/channel/measurement mappings, multi-channel and sequence
combinators, and repetitions. Every template is built eagerly, so name
errors are reported before any value is bound.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, toml or json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.format, "output", "o", "", "output format: text, yaml or json")

	root.AddCommand(
		a.newCheckCmd(),
		a.newInspectCmd(),
		a.newBindCmd(),
		a.newStoreCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	if a.format != "" {
		if err := config.ValidateFormat(a.format); err != nil {
			return err
		}
		cfg.Output.Format = a.format
	}

	logger, err := logging.New(cfg.Log, a.verbose, a.logOpts...)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	a.logger.Debug("configuration loaded",
		zap.String("config", a.cfgFile),
		zap.String("store", cfg.Store.Driver),
		zap.String("output", cfg.Output.Format))

	return nil
}

func (a *app) openStore() (store.Store, error) {
	return store.Open(a.cfg.Store.Driver, a.cfg.Store.Location(), a.logger)
}

// execute runs root and flushes the logger, also when the command fails.
func (a *app) execute(root *cobra.Command) error {
	defer func() { _ = a.logger.Sync() }()

	return root.Execute()
}

func main() {
	a := newApp()

	if err := a.execute(a.newRootCmd()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
