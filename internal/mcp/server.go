// Package mcp exposes the audit, generation, and review-session surface as
// MCP tools over stdio. Apply is deliberately absent: it requires the
// caller's write credential, which never travels through the tool layer.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pagelift/pagelift/internal/audit"
	"github.com/pagelift/pagelift/internal/facts"
	"github.com/pagelift/pagelift/internal/generator"
	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/review"
	"github.com/pagelift/pagelift/internal/session"
	"github.com/pagelift/pagelift/internal/store"
)

// Server wraps the pagelift pipeline and exposes it as MCP tools.
type Server struct {
	store     store.Store
	manager   *review.Manager
	auditor   *audit.Auditor
	validator *facts.Validator
	now       func() time.Time
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(st store.Store, sessionTTL time.Duration, auditOpts audit.Options) (*Server, error) {
	validator, err := facts.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		store:     st,
		manager:   review.NewManager(st, sessionTTL),
		auditor:   audit.New(auditOpts),
		validator: validator,
		now:       time.Now,
	}, nil
}

// WithClock replaces the server's clock. Tests only.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	s.manager.WithClock(now)
	return s
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("pagelift", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.auditSiteTool())
	srv.AddTool(s.auditPageTool())
	srv.AddTool(s.generateContentTool())
	srv.AddTool(s.listSessionsTool())
	srv.AddTool(s.getSessionTool())
	srv.AddTool(s.approveSessionTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// pagelift_audit_site
func (s *Server) auditSiteTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pagelift_audit_site",
		mcp.WithDescription("Audit a site's pages for SEO and AI-overview readiness. Fetches each path, scores it 0-100, and returns the aggregated run with per-page findings. The run is persisted."),
		mcp.WithString("site_url", mcp.Required(), mcp.Description("Base URL of the site, e.g. https://example.com")),
		mcp.WithString("paths", mcp.Description("Comma-separated paths to audit (default: /)")),
	)
	return tool, s.handleAuditSite
}

func (s *Server) handleAuditSite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	siteURL, err := request.RequireString("site_url")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: site_url"), nil
	}

	var paths []string
	for _, p := range strings.Split(request.GetString("paths", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}

	run, err := s.auditor.AuditSite(ctx, siteURL, paths)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
	}
	if err := s.store.CreateAuditRun(ctx, run); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to persist audit run: %v", err)), nil
	}

	return marshalResult(run)
}

// pagelift_audit_page
func (s *Server) auditPageTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pagelift_audit_page",
		mcp.WithDescription("Audit a single page URL. Returns extracted signals (title, meta description, structured data, word count) plus the heuristic score and findings."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Full page URL to audit")),
	)
	return tool, s.handleAuditPage
}

func (s *Server) handleAuditPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageURL, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: url"), nil
	}

	report, err := s.auditor.AuditPage(ctx, pageURL)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("audit failed: %v", err)), nil
	}
	return marshalResult(report)
}

// pagelift_generate_content
func (s *Server) generateContentTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pagelift_generate_content",
		mcp.WithDescription("Generate SEO content (title/meta variants, FAQ, JSON-LD schema) from validated business facts. Facts must be a JSON object with at least name and siteUrl; see the business facts schema."),
		mcp.WithString("facts", mcp.Required(), mcp.Description("Business facts as a JSON object string")),
	)
	return tool, s.handleGenerateContent
}

func (s *Server) handleGenerateContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("facts")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: facts"), nil
	}

	f, err := s.validator.Parse([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid business facts: %v", err)), nil
	}

	results := generator.NewPipeline(generator.DefaultConfig()).Generate(f)
	return marshalResult(results)
}

// pagelift_list_sessions
func (s *Server) listSessionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pagelift_list_sessions",
		mcp.WithDescription("List review sessions, newest first. Returns a JSON array with sessionId, status (time-derived, so lapsed sessions show as expired), siteUrl, file count, and expiry."),
	)
	return tool, s.handleListSessions
}

type sessionSummary struct {
	SessionID string    `json:"sessionId"`
	Status    string    `json:"status"`
	SiteURL   string    `json:"siteUrl"`
	Files     int       `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.manager.ListSessions(ctx, 100)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}

	now := s.now()
	out := make([]sessionSummary, len(sessions))
	for i, sess := range sessions {
		out[i] = sessionSummary{
			SessionID: sess.SessionID,
			Status:    string(session.EffectiveStatus(sess, now)),
			SiteURL:   sess.SiteURL,
			Files:     len(sess.PlannedFiles),
			CreatedAt: sess.CreatedAt,
			ExpiresAt: sess.ExpiresAt,
		}
	}
	return marshalResult(out)
}

// pagelift_get_session
func (s *Server) getSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pagelift_get_session",
		mcp.WithDescription("Get a review session by id, including planned files, diff previews, and commit SHAs once applied."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Review session id")),
	)
	return tool, s.handleGetSession
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	sess, err := s.manager.GetSession(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	view := struct {
		*models.ReviewSession
		EffectiveStatus models.SessionStatus `json:"effectiveStatus"`
	}{sess, session.EffectiveStatus(sess, s.now())}
	return marshalResult(view)
}

// pagelift_approve_session
func (s *Server) approveSessionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("pagelift_approve_session",
		mcp.WithDescription("Approve a pending review session so it can be applied. Approving an already-approved session succeeds without change; applied and expired sessions are rejected. Applying requires the HTTP API or CLI, which carry the write credential."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Review session id")),
	)
	return tool, s.handleApproveSession
}

func (s *Server) handleApproveSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	result, err := s.manager.Approve(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return marshalResult(result)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
