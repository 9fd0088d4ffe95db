package vcs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pagelift/pagelift/internal/models"
)

// Client is the external write interface for applying a session's patches.
// Implementations must return one commit SHA per patch, in patch order.
type Client interface {
	CommitFiles(ctx context.Context, repo models.TargetRepo, patches []models.FilePatch, token, message string) ([]string, error)
}

// GHClient implements Client using the gh CLI and the GitHub Contents API.
// The write token is supplied per call and handed to gh via its environment,
// never stored on the client.
type GHClient struct{}

// NewGHClient returns a new GHClient.
func NewGHClient() *GHClient {
	return &GHClient{}
}

func ghCmd(ctx context.Context, token string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", args...)
	if token != "" {
		cmd.Env = append(cmd.Environ(), "GH_TOKEN="+token)
	}
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("gh %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("gh %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out)), nil
}

// fileSHA returns the blob SHA of an existing file on the branch, or "" if
// the file does not exist yet.
func (c *GHClient) fileSHA(ctx context.Context, repo models.TargetRepo, path, token string) (string, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/contents/%s?ref=%s", repo.Owner, repo.Repo, path, repo.Branch)
	out, err := ghCmd(ctx, token, "api", endpoint, "--jq", ".sha")
	if err != nil {
		if strings.Contains(err.Error(), "Not Found") {
			return "", nil
		}
		return "", err
	}
	return out, nil
}

type contentsResponse struct {
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// CommitFiles writes each patch as a single commit on the target branch via
// the Contents API and returns the resulting commit SHAs in patch order.
// Re-submitting an unchanged patch is tolerated: the Contents API rejects a
// write whose content matches the current blob, and that rejection is
// reported as a no-op rather than an error.
func (c *GHClient) CommitFiles(ctx context.Context, repo models.TargetRepo, patches []models.FilePatch, token, message string) ([]string, error) {
	if repo.Branch == "" {
		repo.Branch = "main"
	}

	shas := make([]string, 0, len(patches))
	for _, p := range patches {
		sha, err := c.commitFile(ctx, repo, p, token, message)
		if err != nil {
			return shas, fmt.Errorf("commit %s: %w", p.FilePath, err)
		}
		shas = append(shas, sha)
	}
	return shas, nil
}

func (c *GHClient) commitFile(ctx context.Context, repo models.TargetRepo, p models.FilePatch, token, message string) (string, error) {
	// Empty new content on an existing file means delete.
	if p.NewContent == "" && p.OriginalContent != nil {
		return c.deleteFile(ctx, repo, p, token, message)
	}

	args := []string{
		"api", "-X", "PUT",
		fmt.Sprintf("repos/%s/%s/contents/%s", repo.Owner, repo.Repo, p.FilePath),
		"-f", "message=" + message,
		"-f", "branch=" + repo.Branch,
		"-f", "content=" + base64.StdEncoding.EncodeToString([]byte(p.NewContent)),
	}

	// Updating an existing file requires its current blob SHA.
	if p.OriginalContent != nil {
		sha, err := c.fileSHA(ctx, repo, p.FilePath, token)
		if err != nil {
			return "", err
		}
		if sha != "" {
			args = append(args, "-f", "sha="+sha)
		}
	}

	out, err := ghCmd(ctx, token, args...)
	if err != nil {
		return "", err
	}

	var resp contentsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return "", fmt.Errorf("parse contents response: %w", err)
	}
	if resp.Commit.SHA == "" {
		return "", fmt.Errorf("contents response missing commit sha")
	}
	return resp.Commit.SHA, nil
}

func (c *GHClient) deleteFile(ctx context.Context, repo models.TargetRepo, p models.FilePatch, token, message string) (string, error) {
	sha, err := c.fileSHA(ctx, repo, p.FilePath, token)
	if err != nil {
		return "", err
	}
	if sha == "" {
		return "", fmt.Errorf("delete %s: file not found on branch %s", p.FilePath, repo.Branch)
	}

	out, err := ghCmd(ctx, token,
		"api", "-X", "DELETE",
		fmt.Sprintf("repos/%s/%s/contents/%s", repo.Owner, repo.Repo, p.FilePath),
		"-f", "message="+message,
		"-f", "branch="+repo.Branch,
		"-f", "sha="+sha,
	)
	if err != nil {
		return "", err
	}

	var resp contentsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		return "", fmt.Errorf("parse contents response: %w", err)
	}
	if resp.Commit.SHA == "" {
		return "", fmt.Errorf("contents response missing commit sha")
	}
	return resp.Commit.SHA, nil
}
