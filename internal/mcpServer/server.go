// Package mcpServer exposes job and document lookups as MCP tools over stdio.
package mcpServer

import (
	"context"
	"errors"

	"github.com/akolanti/smartsort/internal/job"
	"github.com/akolanti/smartsort/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const Version = "1.0.0"

var ErrMissingService = errors.New("mcp: job service is required")

type Server struct {
	service *job.Service
	server  *mcp.Server
	logger  *logger_i.Logger
}

func NewServer(service *job.Service) (*Server, error) {
	if service == nil {
		return nil, ErrMissingService
	}
	s := &Server{
		service: service,
		server:  mcp.NewServer(&mcp.Implementation{Name: "smartsort", Version: Version}, nil),
		logger:  logger_i.NewLogger("MCP"),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("MCP server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
