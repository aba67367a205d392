// Package gitinfo looks up the HEAD commit of the kernel source tree that
// was scanned (SPEC_FULL.md §4.12). yocto-scan logs it; it is not written
// into the VEX output.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// HeadCommit returns the HEAD commit hash of the git working tree rooted
// at or above srcRoot, and whether one was found. Kernel source is
// frequently extracted from a tarball rather than cloned, so the absence
// of a working tree is expected and reported as ok=false, not an error.
func HeadCommit(srcRoot string) (commit string, ok bool) {
	repo, err := git.PlainOpenWithOptions(srcRoot, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", false
	}

	head, err := repo.Head()
	if err != nil {
		return "", false
	}

	return head.Hash().String(), true
}
