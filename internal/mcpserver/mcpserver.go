package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/sweep/internal/cache"
	"github.com/panbanda/sweep/pkg/config"
)

// Server wraps the MCP server and registers the sweep tools.
type Server struct {
	server *mcp.Server
	config *config.Config
	cache  *cache.Cache
}

// Option configures a Server.
type Option func(*Server)

// WithConfig sets the configuration scans run with.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// WithCache sets the result cache shared by scan calls.
func WithCache(c *cache.Cache) Option {
	return func(s *Server) {
		s.cache = c
	}
}

// NewServer creates a new MCP server with all sweep tools registered.
func NewServer(version string, opts ...Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "sweep",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = config.LoadOrDefault()
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// registerTools adds the sweep tools to the server.
func (s *Server) registerTools() {
	// Unused code report
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "scan_index",
		Description: describeScanIndex(),
	}, s.handleScanIndex)

	// Retention path for one declaration
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "explain_retention",
		Description: describeExplainRetention(),
	}, s.handleExplainRetention)

	// Index validation
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "check_index",
		Description: describeCheckIndex(),
	}, s.handleCheckIndex)
}
