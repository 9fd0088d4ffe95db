package audit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pagelift/pagelift/internal/models"
)

// Options configures an Auditor.
type Options struct {
	// Include/Exclude are doublestar globs matched against URL paths,
	// e.g. "/services/**" or "/admin/**". Empty Include means everything.
	Include []string
	Exclude []string
	Timeout time.Duration
	Client  *http.Client
}

// Auditor fetches and scores pages.
type Auditor struct {
	client  *http.Client
	include []string
	exclude []string
}

// New creates an Auditor. The default per-request timeout is 15s.
func New(opts Options) *Auditor {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Auditor{client: client, include: opts.Include, exclude: opts.Exclude}
}

// shouldAudit applies the include/exclude globs to a URL path.
func (a *Auditor) shouldAudit(path string) bool {
	if path == "" {
		path = "/"
	}
	for _, pattern := range a.exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return false
		}
	}
	if len(a.include) == 0 {
		return true
	}
	for _, pattern := range a.include {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

// AuditPage fetches one URL and scores it.
func (a *Auditor) AuditPage(ctx context.Context, pageURL string) (*models.PageReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "pagelift-audit/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	sig, err := ExtractSignals(pageURL, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	sig.StatusCode = resp.StatusCode

	report := ScorePage(sig)
	if resp.StatusCode >= 400 {
		report.Score = 0
		report.Findings = append([]models.Finding{{
			Rule:     "fetch-failed",
			Severity: "error",
			Message:  fmt.Sprintf("page returned HTTP %d", resp.StatusCode),
			URL:      pageURL,
		}}, report.Findings...)
	}
	return &report, nil
}

// AuditSite audits the given paths under a base URL and aggregates them into
// a run. Paths filtered out by include/exclude globs are skipped silently.
func (a *Auditor) AuditSite(ctx context.Context, baseURL string, paths []string) (*models.AuditRun, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if len(paths) == 0 {
		paths = []string{"/"}
	}

	run := &models.AuditRun{SiteURL: strings.TrimRight(baseURL, "/")}
	total := 0
	for _, p := range paths {
		if !a.shouldAudit(p) {
			continue
		}
		ref, err := url.Parse(p)
		if err != nil {
			continue
		}
		report, err := a.AuditPage(ctx, base.ResolveReference(ref).String())
		if err != nil {
			return nil, err
		}
		run.Pages = append(run.Pages, *report)
		total += report.Score
	}

	run.PagesCrawled = len(run.Pages)
	if run.PagesCrawled > 0 {
		run.Score = total / run.PagesCrawled
	}
	return run, nil
}
