package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination commits each snapshot to a file in a local clone and
// pushes the branch. Snapshots that change nothing produce no commit.
type GitDestination struct {
	repo   string
	file   string
	branch string
}

func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Name() string {
	return "git:" + d.repo + "@" + d.branch
}

func (d *GitDestination) Write(ctx context.Context, data []byte) error {
	if out, err := d.git(ctx, "checkout", d.branch); err != nil {
		return fmt.Errorf("git checkout %s: %w: %s", d.branch, err, out)
	}
	// The remote may not have the branch yet; a failed pull is fine.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	path := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if out, err := d.git(ctx, "add", d.file); err != nil {
		return fmt.Errorf("git add: %w: %s", err, out)
	}

	staged, err := d.hasStagedChanges(ctx)
	if err != nil {
		return err
	}
	if !staged {
		return nil
	}

	if out, err := d.git(ctx, "commit", "-m", "Update automation snapshot"); err != nil {
		return fmt.Errorf("git commit: %w: %s", err, out)
	}
	if out, err := d.git(ctx, "push", "origin", d.branch); err != nil {
		return fmt.Errorf("git push: %w: %s", err, out)
	}
	return nil
}

// hasStagedChanges reports whether the index differs from HEAD. git diff
// --cached --quiet exits 1 on differences, 0 on none.
func (d *GitDestination) hasStagedChanges(ctx context.Context) (bool, error) {
	_, err := d.git(ctx, "diff", "--cached", "--quiet")
	if err == nil {
		return false, nil
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) && exit.ExitCode() == 1 {
		return true, nil
	}
	return false, fmt.Errorf("git diff --cached: %w", err)
}

func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
