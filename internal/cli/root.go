// Package cli implements cardgen, the offline companion to the card server.
//
// Configuration is read with the following precedence:
//
//	1. Command-line flags
//	2. CARDGEN_<FLAG> environment variables (CARDGEN_ESCAPE, CARDGEN_LOG_LEVEL, ...)
//	3. A config file given by --config, or .cardgen.yaml in the working directory
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/processor"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "CARDGEN"

// NewRootCommand builds the cardgen command tree. Each call gets its own viper
// instance so commands can be executed repeatedly in one process.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "cardgen",
		Short: "Merge tabular data into RPG card templates",
		Long: `cardgen turns a card template with {{Field}} placeholders and a pasted
spreadsheet (tab or comma separated) into a JSON array of cards.

Quick Start:
  cardgen template --form form.json > card.json   Build a template from a card form
  cardgen fields card.json                       List the template's fields
  cardgen merge -t card.json -d data.tsv         Print merged cards
  cardgen watch -t card.json -d data.tsv -o out  Re-merge whenever a file changes`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return err
			}
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			logger := ctxlog.New(cmd.ErrOrStderr(), v.GetString("log-level"))
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .cardgen.yaml, can also use CARDGEN_CONFIG_FILE env var)")
	root.PersistentFlags().StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("escape", false, "JSON-escape substituted values")

	root.AddCommand(
		newTemplateCommand(v),
		newFieldsCommand(),
		newMergeCommand(v),
		newWatchCommand(v),
	)
	return root
}

// Execute runs cardgen with os.Args until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(envPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		v.SetConfigFile(envConfigFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".cardgen")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func mergeOptions(v *viper.Viper) processor.MergeOptions {
	return processor.MergeOptions{EscapeValues: v.GetBool("escape")}
}
