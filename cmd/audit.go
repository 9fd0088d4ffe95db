package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagelift/pagelift/internal/audit"
	"github.com/pagelift/pagelift/internal/output"
)

var (
	auditPaths   []string
	auditInclude []string
	auditExclude []string
)

var auditCmd = &cobra.Command{
	Use:   "audit [site-url]",
	Short: "Audit a site's pages for SEO and AI-overview readiness",
	Long: `Fetch and score the given site's pages. Each page gets a 0-100 score
with named findings; the run is persisted for later comparison.

The site URL may be omitted when site.base_url is configured.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		siteURL := viper.GetString("site.base_url")
		if len(args) == 1 {
			siteURL = args[0]
		}
		if siteURL == "" {
			return fmt.Errorf("no site URL given and site.base_url is not configured")
		}
		return auditRun(cmd.Context(), siteURL)
	},
}

var auditRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past audit runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return auditRunsRun(cmd.Context())
	},
}

func init() {
	auditCmd.Flags().StringSliceVar(&auditPaths, "paths", []string{"/"}, "Paths to audit")
	auditCmd.Flags().StringSliceVar(&auditInclude, "include", nil, "Only audit paths matching these globs")
	auditCmd.Flags().StringSliceVar(&auditExclude, "exclude", nil, "Skip paths matching these globs")
	auditCmd.AddCommand(auditRunsCmd)
	rootCmd.AddCommand(auditCmd)
}

func auditRun(ctx context.Context, siteURL string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	opts := auditOptionsFromConfig()
	if len(auditInclude) > 0 {
		opts.Include = auditInclude
	}
	if len(auditExclude) > 0 {
		opts.Exclude = auditExclude
	}

	ui.VerboseLog("Auditing %s (%d paths)", siteURL, len(auditPaths))
	run, err := audit.New(opts).AuditSite(ctx, siteURL, auditPaths)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would persist audit run for %s", run.SiteURL)
	} else if err := s.CreateAuditRun(ctx, run); err != nil {
		return fmt.Errorf("persist audit run: %w", err)
	}

	table := ui.Table([]string{"Page", "Score", "Findings"})
	for _, page := range run.Pages {
		findings := make([]string, 0, len(page.Findings))
		for _, f := range page.Findings {
			findings = append(findings, f.Rule)
		}
		table.Append([]string{
			output.Cyan(page.Signals.URL),
			output.ScoreColor(page.Score),
			strings.Join(findings, ", "),
		})
	}
	table.Render()

	fmt.Fprintln(ui.Out)
	ui.Success("Site score: %s (%d pages)", output.ScoreColor(run.Score), run.PagesCrawled)
	return nil
}

func auditRunsRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	runs, err := s.ListAuditRuns(ctx, viper.GetString("site.base_url"), 20)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		ui.Info("No audit runs recorded yet. Run 'pagelift audit <url>' first.")
		return nil
	}

	table := ui.Table([]string{"ID", "Site", "Score", "Pages", "When"})
	for _, run := range runs {
		table.Append([]string{
			run.ID,
			output.Cyan(run.SiteURL),
			output.ScoreColor(run.Score),
			strconv.Itoa(run.PagesCrawled),
			timeAgo(run.CreatedAt),
		})
	}
	table.Render()
	return nil
}

// timeAgo renders a timestamp as a relative duration for table display.
func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
