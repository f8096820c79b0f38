package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sweqa/trx/internal/model"
)

// MermaidOptions configures Mermaid diagram generation.
type MermaidOptions struct {
	MaxNodes  int    // Nodes before tests collapse into per-kind groups (default: 40)
	Direction string // Layout direction: "TD" (top-down) or "LR" (left-right)
	Collapse  bool   // Collapse tests when the diagram exceeds MaxNodes
	Title     string // Optional diagram title
}

// DefaultMermaidOptions returns the defaults used by 'trx graph'.
func DefaultMermaidOptions() *MermaidOptions {
	return &MermaidOptions{
		MaxNodes:  40,
		Direction: "LR",
		Collapse:  true,
	}
}

type nodeShape int

const (
	shapeRect nodeShape = iota
	shapeHexagon
	shapeStadium
	shapeRound
	shapeParallelogram
)

type mermaidNode struct {
	id    string
	label string
	shape nodeShape
}

type mermaidEdge struct {
	from   string
	to     string
	dotted bool
}

type diagram struct {
	nodes map[string]mermaidNode
	order []string
	edges []mermaidEdge
}

func (d *diagram) node(id, label string, shape nodeShape) string {
	id = sanitizeMermaidID(id)
	if _, ok := d.nodes[id]; !ok {
		d.nodes[id] = mermaidNode{id: id, label: label, shape: shape}
		d.order = append(d.order, id)
	}
	return id
}

func (d *diagram) edge(from, to string, dotted bool) {
	d.edges = append(d.edges, mermaidEdge{from: from, to: to, dotted: dotted})
}

// Mermaid renders the matrix entries named by ids, or every entry when ids is
// empty, as a Mermaid flowchart. Requirements point at the components and
// interfaces they declare; tests point at the requirements they verify with
// dotted edges.
//
// When Collapse is set and the diagram would exceed MaxNodes, the tests of
// each kind linked to a requirement are drawn as one counted node.
func Mermaid(m Matrix, ids []string, opts *MermaidOptions) (string, error) {
	if opts == nil {
		opts = DefaultMermaidOptions()
	}
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = 40
	}
	direction := opts.Direction
	if direction != "TD" && direction != "LR" {
		direction = "LR"
	}

	if len(ids) == 0 {
		ids = m.IDs()
	}
	seen := make(map[string]bool, len(ids))
	selected := make([]string, 0, len(ids))
	for _, id := range ids {
		if m.Requirement(id) == nil {
			return "", fmt.Errorf("requirement %q not in traceability matrix", id)
		}
		if !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}

	d := buildDiagram(m, selected, false)
	if opts.Collapse && len(d.order) > maxNodes {
		d = buildDiagram(m, selected, true)
	}

	var sb strings.Builder
	if opts.Title != "" {
		fmt.Fprintf(&sb, "---\ntitle: %s\n---\n", escapeMermaidString(opts.Title))
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)
	for _, id := range d.order {
		fmt.Fprintf(&sb, "    %s\n", generateMermaidNode(d.nodes[id]))
	}
	for _, e := range d.edges {
		arrow := "-->"
		if e.dotted {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", e.from, arrow, e.to)
	}
	return sb.String(), nil
}

func buildDiagram(m Matrix, ids []string, collapse bool) *diagram {
	d := &diagram{nodes: make(map[string]mermaidNode)}
	for _, id := range ids {
		e := m[id]
		req := d.node("req_"+id, id, shapeRect)
		for _, c := range e.Components.Sorted() {
			d.edge(req, d.node("comp_"+c, c, shapeHexagon), false)
		}
		for _, i := range e.Interfaces.Sorted() {
			d.edge(req, d.node("if_"+i, i, shapeStadium), false)
		}
		for _, k := range model.Kinds {
			tests := e.Tests(k)
			if tests.Len() == 0 {
				continue
			}
			if collapse {
				label := fmt.Sprintf("%s tests (%d)", k, tests.Len())
				d.edge(d.node("req_"+id+"__"+string(k), label, shapeParallelogram), req, true)
				continue
			}
			for _, t := range tests.Sorted() {
				d.edge(d.node(string(k)+"_"+t, t, shapeRound), req, true)
			}
		}
	}
	return d
}

// generateMermaidNode creates a Mermaid node declaration with its shape.
func generateMermaidNode(n mermaidNode) string {
	label := escapeMermaidString(n.label)
	switch n.shape {
	case shapeHexagon:
		return fmt.Sprintf("%s{{\"%s\"}}", n.id, label)
	case shapeStadium:
		return fmt.Sprintf("%s([\"%s\"])", n.id, label)
	case shapeRound:
		return fmt.Sprintf("%s(\"%s\")", n.id, label)
	case shapeParallelogram:
		return fmt.Sprintf("%s[/\"%s\"/]", n.id, label)
	default:
		return fmt.Sprintf("%s[\"%s\"]", n.id, label)
	}
}

// Mermaid IDs can contain alphanumeric chars and underscores.
var mermaidIDRegex = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeMermaidID(id string) string {
	sanitized := mermaidIDRegex.ReplaceAllString(id, "_")

	if len(sanitized) > 0 && sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "_" + sanitized
	}
	if sanitized == "" {
		sanitized = "_empty"
	}
	return sanitized
}

// escapeMermaidString escapes special characters in Mermaid string content.
func escapeMermaidString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return s
}

// PieChart generates a Mermaid pie chart. Slices are sorted by name and
// zero-valued slices are omitted.
func PieChart(title string, slices map[string]int) string {
	var sb strings.Builder

	if title != "" {
		fmt.Fprintf(&sb, "pie title %s\n", escapeMermaidString(title))
	} else {
		sb.WriteString("pie\n")
	}

	keys := make([]string, 0, len(slices))
	for k, v := range slices {
		if v > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&sb, "    \"%s\" : %d\n", escapeMermaidString(key), slices[key])
	}
	return sb.String()
}
