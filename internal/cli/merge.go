package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/processor"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type mergeJob struct {
	TemplatePath string
	DataPath     string
	OutPath      string
	Options      processor.MergeOptions
}

func newMergeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge pasted data into a template",
		Long: `Merge every row of a tab or comma separated data file into a template and
write the resulting cards as a JSON array. Rows that do not produce valid
JSON are reported and skipped.

Examples:
  cardgen merge -t card.json -d monsters.tsv
  cardgen merge -t card.json -d - < monsters.csv
  cardgen merge -t card.json -d monsters.tsv -o cards.json --escape`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := newMergeJob(v)
			if err != nil {
				return err
			}
			_, err = job.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}

	addMergeFlags(cmd)
	return cmd
}

func addMergeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("template", "t", "", "template file")
	cmd.Flags().StringP("data", "d", "", "data file, or - for stdin")
	cmd.Flags().StringP("out", "o", "", "output file (default stdout)")
}

func newMergeJob(v *viper.Viper) (*mergeJob, error) {
	job := &mergeJob{
		TemplatePath: v.GetString("template"),
		DataPath:     v.GetString("data"),
		OutPath:      v.GetString("out"),
		Options:      mergeOptions(v),
	}
	if job.TemplatePath == "" {
		return nil, errors.New("--template is required")
	}
	if job.DataPath == "" {
		return nil, errors.New("--data is required")
	}
	return job, nil
}

// Run performs one merge pass. The output is written to OutPath when set,
// otherwise to stdout.
func (j *mergeJob) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) (processor.MergeResult, error) {
	logger := ctxlog.FromContext(ctx)

	template, err := readTemplate(j.TemplatePath)
	if err != nil {
		return processor.MergeResult{}, err
	}

	raw, err := j.readData(stdin)
	if err != nil {
		return processor.MergeResult{}, err
	}

	dataset, err := processor.Ingest(raw, processor.ExtractFields(template))
	if err != nil {
		return processor.MergeResult{}, fmt.Errorf("%s: %w", j.DataPath, err)
	}

	result := processor.MergeDataset(template, dataset, j.Options)
	for _, rowErr := range result.Errors {
		logger.Warn("skipping row", "row", rowErr.Index, "error", rowErr.Err)
	}

	data, err := processor.ExportJSON(result.Documents)
	if err != nil {
		return result, err
	}

	if j.OutPath == "" {
		_, err = fmt.Fprintln(stdout, string(data))
		return result, err
	}
	if err := writeFileAtomic(j.OutPath, data); err != nil {
		return result, err
	}
	logger.Info("cards written", "path", j.OutPath, "cards", len(result.Documents), "skipped", len(result.Errors))
	return result, nil
}

func (j *mergeJob) readData(stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if j.DataPath == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(j.DataPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read data: %w", err)
	}
	return string(data), nil
}

// writeFileAtomic replaces path so a watcher never sees a half-written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cardgen-*")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
