package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/output"
	"github.com/sweqa/trx/internal/report"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the report document",
	Long: `Print the JSON Schema describing the output of 'trx report --format json',
for validating reports in downstream tooling.`,
	Example: `  trx schema > report.schema.json`,
	Args:    cobra.NoArgs,
	RunE:    runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	if outputFormat != "" {
		if f, err := output.ParseFormat(outputFormat); err != nil || f != output.FormatJSON {
			return fmt.Errorf("schema is only available as json")
		}
	}

	data, err := report.Schema()
	if err != nil {
		return fmt.Errorf("generating schema: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
