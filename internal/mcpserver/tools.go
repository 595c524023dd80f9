package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/panbanda/sweep/internal/output"
	"github.com/panbanda/sweep/internal/service/analysis"
	"github.com/panbanda/sweep/pkg/analyzer/reachability"
	"github.com/panbanda/sweep/pkg/scan"
)

// Common input structures for tools

// IndexInput is the base input for all tools.
type IndexInput struct {
	Index  string `json:"index" jsonschema:"Path to the index dump (.json, .yaml or .yml)."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ScanInput adds scan-specific options.
type ScanInput struct {
	IndexInput
	Hints                      []string `json:"hints,omitempty" jsonschema:"Only return results with these hints, e.g. unused or unusedImport."`
	RetainPublic               bool     `json:"retain_public,omitempty" jsonschema:"Treat public and open declarations as used."`
	RetainAssignOnlyProperties bool     `json:"retain_assign_only_properties,omitempty" jsonschema:"Do not report properties that are only assigned."`
	NoCache                    bool     `json:"no_cache,omitempty" jsonschema:"Ignore cached results."`
}

// ExplainInput adds the declaration to explain.
type ExplainInput struct {
	IndexInput
	USR string `json:"usr" jsonschema:"USR of the declaration to explain."`
}

// CheckInput validates an index.
type CheckInput struct {
	IndexInput
}

// scanOutput is the tool result of scan_index.
type scanOutput struct {
	Results []output.RecordView `json:"results" toon:"results"`
	Stats   *scan.Stats         `json:"stats,omitempty" toon:"stats,omitempty"`
	Cached  bool                `json:"cached" toon:"cached"`
	// Files whose imports could not be resolved.
	ImportErrors []string `json:"import_errors,omitempty" toon:"import_errors,omitempty"`
}

// retentionStep is one declaration in a retention path.
type retentionStep struct {
	Name     string `json:"name" toon:"name"`
	Kind     string `json:"kind" toon:"kind"`
	USR      string `json:"usr" toon:"usr"`
	Location string `json:"location" toon:"location"`
}

// explainOutput is the tool result of explain_retention.
type explainOutput struct {
	USR      string          `json:"usr" toon:"usr"`
	Retained bool            `json:"retained" toon:"retained"`
	Path     []retentionStep `json:"path,omitempty" toon:"path,omitempty"`
}

// Helper functions

func getFormat(input IndexInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handleScanIndex(ctx context.Context, req *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, any, error) {
	if input.Index == "" {
		return toolError("index is required")
	}
	format := getFormat(input.IndexInput)

	// Overrides apply to this call only.
	cfg := *s.config
	cfg.Retention.Public = cfg.Retention.Public || input.RetainPublic
	cfg.Retention.AssignOnlyProperties = cfg.Retention.AssignOnlyProperties || input.RetainAssignOnlyProperties

	svc := analysis.New(analysis.WithConfig(&cfg), analysis.WithCache(s.cache))
	result, err := svc.Scan(ctx, input.Index, analysis.ScanOptions{NoCache: input.NoCache})
	if err != nil {
		return toolError(err.Error())
	}

	out := scanOutput{
		Results: output.Views(output.FilterHints(result.Records, input.Hints)),
		Stats:   result.Stats,
		Cached:  result.Cached,
	}
	for _, pe := range result.ImportErrors.Sorted() {
		out.ImportErrors = append(out.ImportErrors, pe.Error())
	}
	return toolResult(out, format)
}

func (s *Server) handleExplainRetention(ctx context.Context, req *mcp.CallToolRequest, input ExplainInput) (*mcp.CallToolResult, any, error) {
	if input.Index == "" {
		return toolError("index is required")
	}
	if input.USR == "" {
		return toolError("usr is required")
	}
	format := getFormat(input.IndexInput)

	svc := analysis.New(analysis.WithConfig(s.config))
	exp, err := svc.Explain(ctx, input.Index, input.USR)
	if errors.Is(err, reachability.ErrNotRetained) {
		return toolResult(explainOutput{USR: input.USR}, format)
	}
	if err != nil {
		return toolError(err.Error())
	}

	out := explainOutput{USR: input.USR, Retained: true}
	for _, d := range exp.Path {
		step := retentionStep{
			Name:     d.Name,
			Kind:     string(d.Kind),
			Location: d.Location.String(),
		}
		if len(d.USRs) > 0 {
			step.USR = d.USRs[0]
		}
		out.Path = append(out.Path, step)
	}
	return toolResult(out, format)
}

func (s *Server) handleCheckIndex(ctx context.Context, req *mcp.CallToolRequest, input CheckInput) (*mcp.CallToolResult, any, error) {
	if input.Index == "" {
		return toolError("index is required")
	}

	svc := analysis.New(analysis.WithConfig(s.config))
	summary, err := svc.Check(input.Index)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(summary, getFormat(input.IndexInput))
}
