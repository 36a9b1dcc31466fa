package connectors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitConnector keeps a course directory checked out from a git remote.
type GitConnector struct {
	token  string
	branch string
	logger *slog.Logger
}

func NewGitConnector(token, branch string, logger *slog.Logger) *GitConnector {
	if branch == "" {
		branch = "master"
	}
	return &GitConnector{token: token, branch: branch, logger: logger}
}

// Fetch clones repoURL into destDir, or fast-forwards an existing checkout.
// For an existing checkout the returned delta lists the paths that changed;
// a fresh clone returns a non-incremental delta.
func (g *GitConnector) Fetch(ctx context.Context, repoURL, destDir string) (*DeltaResult, error) {
	if _, err := os.Stat(filepath.Join(destDir, ".git")); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
			return nil, fmt.Errorf("create parent dir: %w", err)
		}
		if err := g.run(ctx, "", "clone", "--branch", g.branch, injectToken(repoURL, g.token), destDir); err != nil {
			return nil, fmt.Errorf("git clone: %w", err)
		}
		sha, err := HeadSHA(ctx, destDir)
		if err != nil {
			return nil, err
		}
		return &DeltaResult{CurrentSHA: sha}, nil
	}

	previous, err := HeadSHA(ctx, destDir)
	if err != nil {
		return nil, err
	}
	if err := g.run(ctx, destDir, "pull", "--ff-only", injectToken(repoURL, g.token), g.branch); err != nil {
		return nil, fmt.Errorf("git pull: %w", err)
	}

	delta, err := ComputeGitDelta(ctx, destDir, previous)
	if err != nil {
		g.logger.Warn("git delta failed, falling back to full sync",
			slog.String("course_dir", destDir),
			slog.String("error", err.Error()))
		sha, _ := HeadSHA(ctx, destDir)
		return &DeltaResult{PreviousSHA: previous, CurrentSHA: sha}, nil
	}
	return delta, nil
}

func (g *GitConnector) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, redact(strings.TrimSpace(string(out)), g.token))
	}
	return nil
}

// HeadSHA reads the current HEAD SHA of a git checkout.
func HeadSHA(ctx context.Context, workDir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = workDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// injectToken adds an access token to https clone URLs.
func injectToken(repoURL, token string) string {
	if token == "" {
		return repoURL
	}
	if strings.HasPrefix(repoURL, "https://") {
		return "https://oauth2:" + token + "@" + strings.TrimPrefix(repoURL, "https://")
	}
	return repoURL
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "***")
}
