package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagelift/pagelift/internal/output"
	"github.com/pagelift/pagelift/internal/plan"
	"github.com/pagelift/pagelift/internal/review"
	"github.com/pagelift/pagelift/internal/session"
	"github.com/pagelift/pagelift/internal/vcs"
)

var (
	reviewPlanPath  string
	reviewShowDiffs bool
	reviewToken     string
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Manage review sessions",
	Long: `Manage review sessions: create one from a plan, inspect it, approve it,
and apply the approved changes to the target repository.

Sessions expire 24 hours after creation by default (review.ttl_hours).
Applied sessions are final; expired sessions cannot be revived.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewListRun(cmd.Context())
	},
}

var reviewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewListRun(cmd.Context())
	},
}

var reviewCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a review session from a plan file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewCreateRun(cmd.Context())
	},
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a review session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewShowRun(cmd.Context(), args[0])
	},
}

var reviewApproveCmd = &cobra.Command{
	Use:   "approve <session-id>",
	Short: "Approve a pending review session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewApproveRun(cmd.Context(), args[0])
	},
}

var reviewApplyCmd = &cobra.Command{
	Use:   "apply <session-id>",
	Short: "Apply an approved session to the target repository",
	Long: `Write the session's patches to the target repository, one commit per
file. Applying is at-most-once: re-applying an applied session returns
the recorded commit SHAs without writing again. If the write fails the
session stays approved and apply can be retried.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewApplyRun(cmd.Context(), args[0])
	},
}

var reviewPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired session records",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewPurgeRun(cmd.Context())
	},
}

func init() {
	reviewCreateCmd.Flags().StringVarP(&reviewPlanPath, "plan", "p", "", "Plan YAML file from 'pagelift plan' (required)")
	_ = reviewCreateCmd.MarkFlagRequired("plan")
	reviewShowCmd.Flags().BoolVar(&reviewShowDiffs, "diffs", false, "Include diff previews")
	reviewApplyCmd.Flags().StringVar(&reviewToken, "token", "", "GitHub write token (falls back to github.token, then GH_TOKEN)")

	reviewCmd.AddCommand(reviewListCmd)
	reviewCmd.AddCommand(reviewCreateCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	reviewCmd.AddCommand(reviewApproveCmd)
	reviewCmd.AddCommand(reviewApplyCmd)
	reviewCmd.AddCommand(reviewPurgeCmd)
	rootCmd.AddCommand(reviewCmd)
}

func getManager() (*review.Manager, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	return review.NewManager(s, sessionTTLFromConfig()), nil
}

func reviewListRun(ctx context.Context) error {
	m, err := getManager()
	if err != nil {
		return err
	}

	sessions, err := m.ListSessions(ctx, 50)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ui.Info("No review sessions. Create one with 'pagelift review create --plan <file>'.")
		return nil
	}

	now := time.Now()
	table := ui.Table([]string{"Session", "Status", "Site", "Files", "Expires"})
	for _, s := range sessions {
		status := string(session.EffectiveStatus(s, now))
		expires := timeUntil(s.ExpiresAt, now)
		if s.Status == "applied" {
			expires = "-"
		}
		table.Append([]string{
			s.SessionID,
			output.StatusColor(status),
			output.Cyan(s.SiteURL),
			strconv.Itoa(len(s.PlannedFiles)),
			expires,
		})
	}
	table.Render()
	return nil
}

func reviewCreateRun(ctx context.Context) error {
	m, err := getManager()
	if err != nil {
		return err
	}

	f, err := os.Open(reviewPlanPath)
	if err != nil {
		return fmt.Errorf("open plan file: %w", err)
	}
	defer func() { _ = f.Close() }()

	in, err := plan.Import(f)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would create review session for %s (%d files)", in.SiteURL, len(in.PlannedFiles))
		return nil
	}

	s, err := m.CreateSession(ctx, *in)
	if err != nil {
		return err
	}

	ui.Success("Review session created: %s", output.Cyan(s.SessionID))
	ui.Info("Status: %s, %d planned files, expires %s",
		output.StatusColor(string(s.Status)), len(s.PlannedFiles), s.ExpiresAt.Local().Format(time.RFC822))
	if n := countHumanReview(s.PlannedFiles); n > 0 {
		ui.Warning("%d file(s) need human review before approving", n)
	}
	return nil
}

func reviewShowRun(ctx context.Context, id string) error {
	m, err := getManager()
	if err != nil {
		return err
	}

	s, err := m.GetSession(ctx, id)
	if err != nil {
		return err
	}

	status := session.EffectiveStatus(s, time.Now())
	ui.Info("Session %s", output.Cyan(s.SessionID))
	fmt.Fprintf(ui.Out, "  Status:   %s\n", output.StatusColor(string(status)))
	fmt.Fprintf(ui.Out, "  Site:     %s\n", s.SiteURL)
	fmt.Fprintf(ui.Out, "  Repo:     %s/%s@%s\n", s.TargetRepo.Owner, s.TargetRepo.Repo, s.TargetRepo.Branch)
	fmt.Fprintf(ui.Out, "  Created:  %s\n", s.CreatedAt.Local().Format(time.RFC822))
	fmt.Fprintf(ui.Out, "  Expires:  %s\n", s.ExpiresAt.Local().Format(time.RFC822))
	if len(s.CommitShas) > 0 {
		fmt.Fprintf(ui.Out, "  Commits:  %v\n", s.CommitShas)
	}
	fmt.Fprintln(ui.Out)

	table := ui.Table([]string{"File", "Action", "Review", "Notes"})
	for _, pf := range s.PlannedFiles {
		reviewFlag := ""
		if pf.HumanReviewRequired {
			reviewFlag = output.Yellow("human")
		}
		notes := ""
		if len(pf.ReviewNotes) > 0 {
			notes = pf.ReviewNotes[0]
		}
		table.Append([]string{pf.FilePath, string(pf.Action), reviewFlag, notes})
	}
	table.Render()

	if reviewShowDiffs {
		for _, d := range s.DiffPreviews {
			fmt.Fprintf(ui.Out, "\n--- %s (%s)\n%s", d.FilePath, d.Action, d.Diff)
			if d.Truncated {
				fmt.Fprintln(ui.Out, output.Yellow("… diff truncated"))
			}
		}
	}
	return nil
}

func reviewApproveRun(ctx context.Context, id string) error {
	m, err := getManager()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would approve session %s", id)
		return nil
	}

	result, err := m.Approve(ctx, id)
	if err != nil {
		return err
	}

	if result.PreviousStatus == result.NewStatus {
		ui.Info("Session %s was already approved", id)
		return nil
	}
	ui.Success("Session %s approved (%s → %s)", output.Cyan(id), result.PreviousStatus, result.NewStatus)
	return nil
}

func reviewApplyRun(ctx context.Context, id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	token := reviewToken
	if token == "" {
		token = viper.GetString("github.token")
	}
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("no GitHub token: pass --token, set github.token, or export GH_TOKEN")
	}

	if dryRun {
		ui.DryRunMsg("Would apply session %s to its target repository", id)
		return nil
	}

	o := review.NewOrchestrator(s, vcs.NewGHClient())
	result, err := o.Apply(ctx, id, token)
	if err != nil {
		return err
	}

	ui.Success("Session %s applied", output.Cyan(id))
	for _, sha := range result.CommitShas {
		fmt.Fprintf(ui.Out, "  commit %s\n", sha)
	}
	return nil
}

func reviewPurgeRun(ctx context.Context) error {
	s, err := getStore()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would purge expired session records")
		return nil
	}

	n, err := s.PurgeExpiredSessions(ctx, time.Now())
	if err != nil {
		return err
	}
	ui.Success("Purged %d expired session record(s)", n)
	return nil
}

// timeUntil renders a future timestamp as a relative duration.
func timeUntil(t time.Time, now time.Time) string {
	d := t.Sub(now)
	if d <= 0 {
		return "expired"
	}
	if d < time.Hour {
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	}
	return fmt.Sprintf("in %dh", int(d.Hours()))
}
