// Package vcs looks up version-control metadata for a scanned tree.
package vcs

import (
	"github.com/go-git/go-git/v6"
)

// Revision returns the abbreviated commit hash of HEAD for the repository
// containing dir, or "" when dir is not inside a git repository or the
// repository has no commits yet.
func Revision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()[:8]
}
