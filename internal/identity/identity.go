// Package identity derives stable project identities and container names.
//
// A host may call with the sentinel project id "global" for any directory
// that is not a formal project. Such calls are scoped to their working tree
// by hashing the tree's path, so two unrelated directories never share an
// environment.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// GlobalProjectID is the sentinel id used for non-project directories.
	GlobalProjectID = "global"

	// MachinePrefix starts every derived container name.
	MachinePrefix = "opencode-"

	pathIDPrefix  = "path-"
	maxSlugLength = 40
	fallbackLen   = 8
)

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Context is the resolved identity of the project a call operates on.
type Context struct {
	// ProjectID is the canonical id used as the state key.
	ProjectID string
	// RawID is the id the host supplied before resolution.
	RawID       string
	ProjectName string
	Worktree    string
}

// Resolve builds the identity context for a host-supplied id and tree.
// The tree is made absolute first, so every spelling of one directory
// resolves to the same id.
func Resolve(rawID, worktree string) Context {
	worktree = AbsWorktree(worktree)
	id := ResolveProjectID(rawID, worktree)
	return Context{
		ProjectID:   id,
		RawID:       rawID,
		ProjectName: ProjectName(worktree, id),
		Worktree:    worktree,
	}
}

// AbsWorktree returns the absolute, cleaned form of worktree. Empty and "/"
// are returned as is since both select the shared global environment.
func AbsWorktree(worktree string) string {
	if worktree == "" || worktree == "/" {
		return worktree
	}
	abs, err := filepath.Abs(worktree)
	if err != nil {
		return filepath.Clean(worktree)
	}
	return abs
}

// Legacy reports whether state written under the raw id must be consulted.
func (c Context) Legacy() bool {
	return c.RawID != "" && c.RawID != c.ProjectID
}

// ResolveProjectID maps the "global" sentinel to a per-tree id. Any other
// id is returned unchanged.
func ResolveProjectID(rawID, worktree string) string {
	if rawID != GlobalProjectID {
		return rawID
	}
	if worktree == "" || worktree == "/" {
		return GlobalProjectID
	}
	sum := sha1.Sum([]byte(worktree))
	return pathIDPrefix + hex.EncodeToString(sum[:])
}

// ProjectName is the tree's base name, or the project id when the tree has none.
func ProjectName(worktree, projectID string) string {
	if worktree == "" {
		return projectID
	}
	base := filepath.Base(worktree)
	if base == "." || base == "/" || base == "" {
		return projectID
	}
	return base
}

// Slugify reduces a display name to lowercase alphanumerics and single
// dashes, capped in length.
func Slugify(value string) string {
	slug := strings.ToLower(value)
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// BuildMachineName derives the default container name for a project.
// When the name yields no usable slug, a short prefix of the project id is
// used instead, so the result is never just the bare prefix.
func BuildMachineName(projectName, projectID string) string {
	if slug := Slugify(projectName); slug != "" {
		return MachinePrefix + slug
	}
	suffix := strings.TrimPrefix(projectID, pathIDPrefix)
	if len(suffix) > fallbackLen {
		suffix = suffix[:fallbackLen]
	}
	if suffix = Slugify(suffix); suffix == "" {
		suffix = "env"
	}
	return MachinePrefix + suffix
}
