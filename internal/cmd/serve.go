package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweqa/trx/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server over the assembled report",
	Long: `Start an MCP (Model Context Protocol) server on stdio so agents can query the
traceability report through tools instead of parsing CLI output.

The snapshot is loaded and the report assembled once at startup; restart the
server to pick up a new snapshot.

Available Tools:
  trx_matrix      Traceability matrix, optionally one requirement
  trx_coverage    Coverage percentages, optionally with gaps
  trx_pass_rates  Pass rates per release and bucket
  trx_defects     Defect attribution per release
  trx_automation  Automated versus manual execution ratios
  trx_releases    Release summaries and order
  trx_test_runs   Latest result per test from the test-run export`,
	Example: `  trx serve --mcp
  trx serve --mcp --tools matrix,coverage
  trx serve --mcp --timeout 30m
  trx serve --list-tools`,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "0", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if serveListTools {
		fmt.Fprintln(out, "Available MCP tools:")
		fmt.Fprintln(out)
		for _, name := range mcp.AllTools {
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseTimeout(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	r, err := s.buildReport(commandContext(cmd))
	if err != nil {
		return err
	}

	srv, err := mcp.New(r, mcp.Config{
		Tools:   parseTools(serveTools),
		Timeout: timeout,
		Version: Version,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	s.logger.Info("serving MCP on stdio", "tools", strings.Join(srv.ListTools(), ","), "timeout", timeout)
	return srv.ServeStdio()
}

// parseTools splits a comma-separated tool list. Names without the trx_
// prefix get it added.
func parseTools(list string) []string {
	var tools []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "trx_") {
			t = "trx_" + t
		}
		tools = append(tools, t)
	}
	return tools
}

// parseTimeout parses a duration; a bare "0" disables the timeout.
func parseTimeout(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
