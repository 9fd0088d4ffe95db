package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelift/pagelift/internal/audit"
	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/review"
	"github.com/pagelift/pagelift/internal/store"
)

func newTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "pagelift.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	srv, err := NewServer(st, 0, audit.Options{})
	require.NoError(t, err)
	return srv, st
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

// seedSession creates a review session directly through the manager.
func seedSession(t *testing.T, st store.Store) *models.ReviewSession {
	t.Helper()
	orig := "<html>old</html>"
	sess, err := review.NewManager(st, 0).CreateSession(context.Background(), models.PlanInput{
		SiteURL:    "https://acmeplumbing.example",
		TargetRepo: models.TargetRepo{Owner: "acme", Repo: "acme-site", ProjectType: "static"},
		PlannedFiles: []models.PlannedFile{
			{URL: "https://acmeplumbing.example/services", FilePath: "public/services/index.html", Action: models.FileActionUpdate},
		},
		DiffPreviews: []models.DiffPreview{
			{FilePath: "public/services/index.html", Action: models.FileActionUpdate, Diff: "-old\n+new\n"},
		},
		Patches: []models.FilePatch{
			{URL: "https://acmeplumbing.example/services", FilePath: "public/services/index.html", NewContent: "<html>new</html>", OriginalContent: &orig},
		},
	})
	require.NoError(t, err)
	return sess
}

func TestNewServer(t *testing.T) {
	srv, _ := newTestServer(t)
	require.NotNil(t, srv.MCPServer(), "MCPServer() should return non-nil")
}

func TestHandleListSessions_Empty(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleListSessions(context.Background(), callToolReq("pagelift_list_sessions", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []sessionSummary
	resultJSON(t, result, &out)
	assert.Empty(t, out)
}

func TestHandleListSessions_EffectiveStatus(t *testing.T) {
	srv, st := newTestServer(t)
	sess := seedSession(t, st)

	srv.WithClock(func() time.Time { return sess.ExpiresAt.Add(time.Minute) })

	result, err := srv.handleListSessions(context.Background(), callToolReq("pagelift_list_sessions", nil))
	require.NoError(t, err)

	var out []sessionSummary
	resultJSON(t, result, &out)
	require.Len(t, out, 1)
	assert.Equal(t, sess.SessionID, out[0].SessionID)
	assert.Equal(t, "expired", out[0].Status)
}

func TestHandleGetSession(t *testing.T) {
	srv, st := newTestServer(t)
	sess := seedSession(t, st)

	result, err := srv.handleGetSession(context.Background(), callToolReq("pagelift_get_session", map[string]any{
		"session_id": sess.SessionID,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out map[string]any
	resultJSON(t, result, &out)
	assert.Equal(t, sess.SessionID, out["sessionId"])
	assert.Equal(t, "pending", out["status"])
	assert.Equal(t, "pending", out["effectiveStatus"])
}

func TestHandleGetSession_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleGetSession(context.Background(), callToolReq("pagelift_get_session", map[string]any{
		"session_id": "nope",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "not found")
}

func TestHandleGetSession_MissingParam(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleGetSession(context.Background(), callToolReq("pagelift_get_session", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleApproveSession(t *testing.T) {
	srv, st := newTestServer(t)
	sess := seedSession(t, st)

	result, err := srv.handleApproveSession(context.Background(), callToolReq("pagelift_approve_session", map[string]any{
		"session_id": sess.SessionID,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out map[string]string
	resultJSON(t, result, &out)
	assert.Equal(t, "pending", out["previousStatus"])
	assert.Equal(t, "approved", out["newStatus"])

	// Idempotent second approve
	result, err = srv.handleApproveSession(context.Background(), callToolReq("pagelift_approve_session", map[string]any{
		"session_id": sess.SessionID,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestHandleApproveSession_Expired(t *testing.T) {
	srv, st := newTestServer(t)
	sess := seedSession(t, st)

	srv.WithClock(func() time.Time { return sess.ExpiresAt })

	result, err := srv.handleApproveSession(context.Background(), callToolReq("pagelift_approve_session", map[string]any{
		"session_id": sess.SessionID,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "expired")
}

func TestHandleGenerateContent(t *testing.T) {
	srv, _ := newTestServer(t)

	facts := `{"name":"Acme Plumbing","siteUrl":"https://acmeplumbing.example","phone":"+1-555-0142","address":{"city":"Springfield"},"services":[{"name":"Drain Cleaning"}]}`
	result, err := srv.handleGenerateContent(context.Background(), callToolReq("pagelift_generate_content", map[string]any{
		"facts": facts,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError, resultText(t, result))

	var out []map[string]any
	resultJSON(t, result, &out)
	require.Len(t, out, 3)
	assert.Equal(t, "title", out[0]["kind"])
	assert.Equal(t, "faq", out[1]["kind"])
	assert.Equal(t, "schema", out[2]["kind"])
}

func TestHandleGenerateContent_InvalidFacts(t *testing.T) {
	srv, _ := newTestServer(t)

	result, err := srv.handleGenerateContent(context.Background(), callToolReq("pagelift_generate_content", map[string]any{
		"facts": `{"siteUrl":"https://x.example"}`,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid business facts")
}

func TestHandleAuditSite(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Acme Plumbing | Emergency Plumber in Springfield</title></head><body><h1>Acme</h1></body></html>`)
	}))
	defer page.Close()

	srv, st := newTestServer(t)

	result, err := srv.handleAuditSite(context.Background(), callToolReq("pagelift_audit_site", map[string]any{
		"site_url": page.URL,
		"paths":    "/, /services",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError, resultText(t, result))

	var run models.AuditRun
	resultJSON(t, result, &run)
	assert.Equal(t, 2, run.PagesCrawled)

	runs, err := st.ListAuditRuns(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestHandleAuditPage(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head></head><body></body></html>`)
	}))
	defer page.Close()

	srv, _ := newTestServer(t)

	result, err := srv.handleAuditPage(context.Background(), callToolReq("pagelift_audit_page", map[string]any{
		"url": page.URL + "/",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var report models.PageReport
	resultJSON(t, result, &report)
	assert.NotEmpty(t, report.Findings)
	assert.Less(t, report.Score, 100)
}
