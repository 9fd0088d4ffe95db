// Package plan builds a change plan — planned files, diff previews, and
// patches — from generated page content and a target-repository descriptor.
// The plan is the input to review-session creation; nothing here touches the
// target repository.
package plan

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/pagelift/pagelift/internal/models"
)

// maxDiffLines caps preview size; the patch itself is never truncated.
const maxDiffLines = 400

// humanReviewLineThreshold flags large diffs for mandatory human review.
const humanReviewLineThreshold = 200

// PageChange is one page's worth of new content headed for the target repo.
// OriginalContent nil means the file does not exist yet.
type PageChange struct {
	Route           string  `json:"route"`
	NewContent      string  `json:"newContent"`
	OriginalContent *string `json:"originalContent"`
}

// Build assembles a PlanInput for the given site, repository, and page
// changes. Routes map to file paths via the repo's route-mapping strategy.
func Build(siteURL string, repo models.TargetRepo, changes []PageChange) (*models.PlanInput, error) {
	if len(changes) == 0 {
		return nil, fmt.Errorf("no page changes to plan")
	}

	in := &models.PlanInput{
		SiteURL:    strings.TrimRight(siteURL, "/"),
		TargetRepo: repo,
	}

	for _, ch := range changes {
		filePath, err := RouteToPath(repo, ch.Route)
		if err != nil {
			return nil, err
		}
		pageURL := in.SiteURL + ch.Route

		action := models.FileActionCreate
		if ch.OriginalContent != nil {
			action = models.FileActionUpdate
			if ch.NewContent == "" {
				action = models.FileActionDelete
			}
		}

		diff, truncated := renderDiff(filePath, ch.OriginalContent, ch.NewContent)

		in.SelectedTargets = append(in.SelectedTargets, ch.Route)
		in.PlannedFiles = append(in.PlannedFiles, models.PlannedFile{
			URL:                 pageURL,
			FilePath:            filePath,
			Action:              action,
			HumanReviewRequired: needsHumanReview(action, diff),
			ReviewNotes:         nil,
		})
		in.DiffPreviews = append(in.DiffPreviews, models.DiffPreview{
			FilePath:  filePath,
			Action:    action,
			Diff:      diff,
			Truncated: truncated,
		})
		in.Patches = append(in.Patches, models.FilePatch{
			URL:             pageURL,
			FilePath:        filePath,
			NewContent:      ch.NewContent,
			OriginalContent: ch.OriginalContent,
		})
	}

	return in, nil
}

// RouteToPath maps a site route to a source file path using the repository's
// route-mapping strategy. The strategy defaults to the project type.
func RouteToPath(repo models.TargetRepo, route string) (string, error) {
	strategy := repo.RouteMapping
	if strategy == "" {
		strategy = repo.ProjectType
	}

	route = "/" + strings.Trim(route, "/")

	switch strategy {
	case "static", "":
		if route == "/" {
			return "public/index.html", nil
		}
		return path.Join("public", route, "index.html"), nil
	case "nextjs":
		if route == "/" {
			return "app/page.tsx", nil
		}
		return path.Join("app", route, "page.tsx"), nil
	case "astro":
		if route == "/" {
			return "src/pages/index.astro", nil
		}
		return path.Join("src/pages", route) + ".astro", nil
	default:
		return "", fmt.Errorf("unknown route mapping strategy: %s", strategy)
	}
}

// renderDiff produces a unified diff preview, truncated to maxDiffLines.
func renderDiff(filePath string, original *string, updated string) (string, bool) {
	from := ""
	fromFile := "/dev/null"
	if original != nil {
		from = *original
		fromFile = "a/" + filePath
	}
	toFile := "b/" + filePath
	if updated == "" && original != nil {
		toFile = "/dev/null"
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(updated),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("diff unavailable: %v", err), false
	}

	lines := strings.SplitAfter(text, "\n")
	if len(lines) <= maxDiffLines {
		return text, false
	}
	return strings.Join(lines[:maxDiffLines], ""), true
}

func needsHumanReview(action models.FileAction, diff string) bool {
	if action == models.FileActionDelete {
		return true
	}
	return strings.Count(diff, "\n") > humanReviewLineThreshold
}

// Export writes the plan as YAML for offline inspection or re-submission.
func Export(w io.Writer, in *models.PlanInput) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(in); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return nil
}

// Import reads a YAML plan previously written by Export.
func Import(r io.Reader) (*models.PlanInput, error) {
	var in models.PlanInput
	if err := yaml.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &in, nil
}
