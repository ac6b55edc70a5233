package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"RPG-CARDS/internal/processor"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newTemplateCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Build a card template from a card form",
		Long: `Build a card template from a JSON card form. Fields left out of the form
keep their defaults; blank fields become placeholders.

Examples:
  cardgen template                      # Default card template
  cardgen template --form goblin.json   # Template from a saved form`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := processor.DefaultCardForm()
			if path := v.GetString("form"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read form: %w", err)
				}
				if err := json.Unmarshal(data, &form); err != nil {
					return fmt.Errorf("invalid card form %s: %w", path, err)
				}
			}

			text, err := processor.BuildTemplate(form)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringP("form", "f", "", "JSON card form")
	return cmd
}
