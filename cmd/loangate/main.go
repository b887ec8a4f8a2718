// Command loangate trains the loan approval model, serves predictions from a
// saved snapshot and prints what a snapshot contains.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/loangate/config"
	"github.com/YuminosukeSato/loangate/pkg/log"
)

const version = "v0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg    *config.Config
	logger log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "loangate",
		Short:         "Loan approval classifier",
		Long:          "loangate trains a logistic regression on loan applications and predicts approval for new ones.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			logger, err := log.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, opts.pretty)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides the config file")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable console logs instead of JSON")

	root.AddCommand(
		newTrainCmd(opts),
		newPredictCmd(opts),
		newShowCmd(opts),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "loangate: %v\n", err)
		os.Exit(1)
	}
}
