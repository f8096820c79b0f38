// Package mcp provides an MCP (Model Context Protocol) server for trx.
// Agents query one assembled traceability report through MCP tools instead of
// parsing CLI output. Every tool is read-only.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sweqa/trx/internal/report"
)

// Server wraps the MCP server with trx-specific functionality.
type Server struct {
	mcpServer    *server.MCPServer
	report       *report.Report
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration.
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
	Version string
}

// AllTools lists all available tools.
var AllTools = []string{
	"trx_matrix",
	"trx_coverage",
	"trx_pass_rates",
	"trx_defects",
	"trx_automation",
	"trx_releases",
	"trx_test_runs",
}

// New creates a new MCP server answering from r.
func New(r *report.Report, cfg Config) (*Server, error) {
	if r == nil {
		return nil, fmt.Errorf("no report to serve")
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Server{
		mcpServer:    server.NewMCPServer("trx", version, server.WithToolCapabilities(false)),
		report:       r,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, name := range toolsToRegister {
		if err := s.registerTool(name); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", name, err)
		}
		s.tools[name] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server.
func (s *Server) registerTool(name string) error {
	schema, ok := toolSchemaRegistry[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	s.mcpServer.AddTool(newTool(schema), s.handler(name))
	return nil
}

func newTool(schema ToolSchema) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(schema.Description)}
	for _, p := range schema.Parameters {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case "boolean":
			opts = append(opts, mcp.WithBoolean(p.Name, popts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(schema.Name, opts...)
}

// handler adapts CallTool to the MCP handler signature. Tool failures are
// reported as error results, not protocol errors.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()

		result, err := s.CallTool(name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded.
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "trx serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tool names in sorted order.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

// toolSchemaRegistry holds the definitions of all tools. Registration builds
// the MCP tool declarations from these entries.
var toolSchemaRegistry = map[string]ToolSchema{
	"trx_matrix": {
		Name:        "trx_matrix",
		Description: "Traceability matrix: components, interfaces, and tests of every kind linked to each requirement.",
		Parameters: []ParameterSchema{
			{Name: "requirement", Type: "string", Description: "Return only this requirement's entry"},
		},
	},
	"trx_coverage": {
		Name:        "trx_coverage",
		Description: "Requirement and component coverage percentages and per-kind test counts.",
		Parameters: []ParameterSchema{
			{Name: "include_gaps", Type: "boolean", Description: "Also return uncovered requirements and components with priorities"},
		},
	},
	"trx_pass_rates": {
		Name:        "trx_pass_rates",
		Description: "Execution outcome counts and pass rates per release and test-type bucket.",
		Parameters: []ParameterSchema{
			{Name: "release", Type: "string", Description: "Release identifier to filter to"},
		},
	},
	"trx_defects": {
		Name:        "trx_defects",
		Description: "Defects of failed executions attributed to components and requirements, per release.",
		Parameters: []ParameterSchema{
			{Name: "release", Type: "string", Description: "Release identifier to filter to"},
		},
	},
	"trx_automation": {
		Name:        "trx_automation",
		Description: "Automated versus manual execution counts based on each test's latest execution.",
	},
	"trx_releases": {
		Name:        "trx_releases",
		Description: "Release summaries with scope, teams involved, and overall pass rate, oldest first.",
		Parameters: []ParameterSchema{
			{Name: "release", Type: "string", Description: "Release identifier to return"},
		},
	},
	"trx_test_runs": {
		Name:        "trx_test_runs",
		Description: "Latest result per test from the test-execution export, per-team verdict counts, and requirement verification rates.",
		Parameters: []ParameterSchema{
			{Name: "test", Type: "string", Description: "Return only this test's latest result"},
		},
	},
}

// GetToolSchemas returns schemas for all registered tools, sorted by name.
func (s *Server) GetToolSchemas() []ToolSchema {
	names := s.ListTools()
	schemas := make([]ToolSchema, 0, len(names))
	for _, name := range names {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	return schemas
}

// CallTool dispatches a tool call by name with the given arguments.
// Returns the JSON result string or an error.
func (s *Server) CallTool(name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	r := s.report
	switch name {
	case "trx_matrix":
		id, _ := args["requirement"].(string)
		if id == "" {
			return toJSON(r.TraceabilityMatrix)
		}
		entry, ok := r.TraceabilityMatrix[id]
		if !ok {
			return "", fmt.Errorf("unknown requirement: %s", id)
		}
		return toJSON(map[string]interface{}{id: entry})

	case "trx_coverage":
		includeGaps, _ := args["include_gaps"].(bool)
		if !includeGaps {
			return toJSON(r.Coverage)
		}
		return toJSON(map[string]interface{}{
			"coverage":      r.Coverage,
			"coverage_gaps": r.CoverageGaps,
		})

	case "trx_pass_rates":
		release, _ := args["release"].(string)
		return byRelease(r.PassRates, release)

	case "trx_defects":
		release, _ := args["release"].(string)
		return byRelease(r.DefectMetrics, release)

	case "trx_automation":
		return toJSON(r.AutomationStatus)

	case "trx_releases":
		release, _ := args["release"].(string)
		if release != "" {
			return byRelease(r.ReleaseInfo, release)
		}
		section, _ := r.Section(report.SectionReleases)
		return toJSON(section)

	case "trx_test_runs":
		if r.TestRuns == nil {
			return "", fmt.Errorf("no test-run export loaded")
		}
		test, _ := args["test"].(string)
		if test == "" {
			return toJSON(r.TestRuns)
		}
		latest, ok := r.TestRuns.Latest[test]
		if !ok {
			return "", fmt.Errorf("no test-run result for test: %s", test)
		}
		return toJSON(map[string]interface{}{test: latest})

	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// byRelease encodes m, or only m[release] when release is set.
func byRelease[V any](m map[string]V, release string) (string, error) {
	if release == "" {
		return toJSON(m)
	}
	v, ok := m[release]
	if !ok {
		return "", fmt.Errorf("unknown release: %s", release)
	}
	return toJSON(map[string]V{release: v})
}

func toJSON(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
