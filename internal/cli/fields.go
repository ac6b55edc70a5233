package cli

import (
	"fmt"
	"os"

	"RPG-CARDS/internal/processor"

	"github.com/spf13/cobra"
)

func newFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <template>",
		Short: "List the fields a template expects",
		Long: `List the distinct placeholder names of a template, in order of first
appearance. These are the columns a pasted spreadsheet must supply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTemplate(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, field := range processor.ExtractFields(text) {
				if _, err := fmt.Fprintln(out, field); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// readTemplate loads a template file and rejects invalid JSON.
func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	text := string(data)
	if err := processor.ValidateTemplate(text); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}
