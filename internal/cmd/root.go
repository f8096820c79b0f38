// Package cmd contains all CLI commands for trx.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is the current version of trx
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	dataDir      string
	forAgents    bool
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "trx",
	Short: "Requirements traceability and test metrics reporting",
	Long: `trx links software requirements to design components, interfaces, and
test cases of every kind, and reports how well they are covered and how the
tests behave across releases.

It reads a snapshot directory of JSON documents exported from requirements
and test management tools: the requirement registry, test case collections,
per-release execution results, and the release registry. From one snapshot it
computes:
  - The traceability matrix (requirement -> components, interfaces, tests)
  - Requirement and component coverage, with prioritized gaps
  - Pass rates per release and test-type bucket
  - Defects attributed to components and requirements
  - Automated versus manual execution ratios
  - Release summaries and the latest result per test

Output Format:
  Commands print JSON by default (configurable in .trx/config.yaml).
  Use --format to switch to yaml. 'trx report' also renders html.

Global Flags:
  --data      Snapshot directory (default: data, from config)
  --format    Output format: json | yaml | html (report only)
  --config    Config file (default: .trx/config.yaml)

Examples:
  trx init                           # Create .trx/config.yaml and a data skeleton
  trx report --format html -o r.html # Full report as an HTML page
  trx matrix --requirement REQ-12    # One requirement's links
  trx coverage --gaps                # Coverage with uncovered items
  trx passrate --release release_3   # Pass rates of one release
  trx graph --requirement REQ-12     # Mermaid diagram of one requirement
  trx doctor                         # Check the snapshot for problems

See 'trx <command> --help' for command-specific options.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .trx/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Snapshot directory (overrides data.dir)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Output format (json|yaml|html); defaults to report.format")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	output := map[string]interface{}{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	if cmd.Example != "" {
		lines := strings.Split(cmd.Example, "\n")
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
