package identity

import (
	"context"
	"strings"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/system"
)

// DetectWorktree returns the git top-level directory containing dir, or
// dir itself when it is not inside a git repository.
func DetectWorktree(ctx context.Context, exec system.CommandExecutor, dir string) string {
	abs := AbsWorktree(dir)

	result, err := exec.Run(ctx, "git", "-C", abs, "rev-parse", "--show-toplevel")
	if err != nil || !result.Success() {
		return abs
	}
	top := strings.TrimSpace(string(result.Stdout))
	if top == "" {
		return abs
	}
	return top
}
