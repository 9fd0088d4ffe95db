package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pagelift/pagelift/internal/generator"
	"github.com/pagelift/pagelift/internal/models"
	"github.com/pagelift/pagelift/internal/output"
	"github.com/pagelift/pagelift/internal/plan"
)

var (
	planFactsPath   string
	planRepo        string
	planBranch      string
	planProjectType string
	planRoutes      []string
	planOutPath     string
	planShowDiffs   bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Build a change plan from business facts",
	Long: `Generate page content from business facts and map it onto the target
repository's file layout, producing planned files, diff previews, and
patches. The plan is written as YAML and feeds 'pagelift review create'.

Routes map to files by project type: static sites get
<route>/index.html under public/, Next.js gets app/<route>/page.tsx,
Astro gets src/pages/<route>.astro.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return planRunCmd(cmd.Context())
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFactsPath, "facts", "f", "", "Business facts JSON file (required)")
	planCmd.Flags().StringVar(&planRepo, "repo", "", "Target repository as owner/name (required)")
	planCmd.Flags().StringVar(&planBranch, "branch", "main", "Target branch")
	planCmd.Flags().StringVar(&planProjectType, "project-type", "static", "Target project type: static, nextjs, astro")
	planCmd.Flags().StringSliceVar(&planRoutes, "routes", []string{"/"}, "Site routes to plan content for")
	planCmd.Flags().StringVarP(&planOutPath, "out", "o", "", "Write the plan YAML to this file (default stdout)")
	planCmd.Flags().BoolVar(&planShowDiffs, "diffs", false, "Print diff previews to stderr")
	_ = planCmd.MarkFlagRequired("facts")
	_ = planCmd.MarkFlagRequired("repo")
	rootCmd.AddCommand(planCmd)
}

func planRunCmd(ctx context.Context) error {
	f, err := loadFacts(planFactsPath)
	if err != nil {
		return err
	}

	owner, repoName, ok := strings.Cut(planRepo, "/")
	if !ok || owner == "" || repoName == "" {
		return fmt.Errorf("--repo must be owner/name, got %q", planRepo)
	}
	repo := models.TargetRepo{
		Owner:       owner,
		Repo:        repoName,
		Branch:      planBranch,
		ProjectType: planProjectType,
	}

	results := generator.NewPipeline(generator.DefaultConfig()).Generate(f)
	page := plan.RenderPage(f, results)

	changes := make([]plan.PageChange, 0, len(planRoutes))
	for _, route := range planRoutes {
		changes = append(changes, plan.PageChange{Route: route, NewContent: page})
	}

	siteURL := f.SiteURL
	if base := viper.GetString("site.base_url"); base != "" {
		siteURL = base
	}

	in, err := plan.Build(siteURL, repo, changes)
	if err != nil {
		return err
	}

	if llmClient := llmClientFromConfig(); llmClient != nil {
		ui.VerboseLog("Annotating planned files with reviewer notes")
		for i, pf := range in.PlannedFiles {
			notes, err := llmClient.ReviewNotes(ctx, pf, in.DiffPreviews[i].Diff)
			if err != nil {
				ui.Warning("Reviewer notes for %s: %v", pf.FilePath, err)
				continue
			}
			in.PlannedFiles[i].ReviewNotes = notes
		}
	}

	if planShowDiffs {
		for _, d := range in.DiffPreviews {
			fmt.Fprintf(ui.ErrOut, "--- %s (%s)\n%s\n", d.FilePath, d.Action, d.Diff)
		}
	}

	if planOutPath == "" {
		return plan.Export(ui.Out, in)
	}

	if dryRun {
		ui.DryRunMsg("Would write plan with %d files to %s", len(in.PlannedFiles), planOutPath)
		return nil
	}

	out, err := os.Create(planOutPath)
	if err != nil {
		return fmt.Errorf("create plan file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if err := plan.Export(out, in); err != nil {
		return err
	}
	ui.Success("Plan written: %s (%d files, %d need human review)",
		output.Cyan(planOutPath), len(in.PlannedFiles), countHumanReview(in.PlannedFiles))
	return nil
}

func countHumanReview(files []models.PlannedFile) int {
	n := 0
	for _, f := range files {
		if f.HumanReviewRequired {
			n++
		}
	}
	return n
}
