package gitlog

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// Opener opens commit streams through a GitClient.
type Opener struct {
	client contract.GitClient
}

var _ contract.CommitStreamOpener = &Opener{} // Compile-time check

// NewOpener creates an Opener backed by the given client.
func NewOpener(client contract.GitClient) *Opener {
	return &Opener{client: client}
}

// Open implements the CommitStreamOpener interface.
func (o *Opener) Open(ctx context.Context, repoPath string, pathFilter string) (contract.CommitStream, error) {
	return Open(ctx, o.client, repoPath, pathFilter)
}

// Open validates that repoPath is a repository root and starts streaming its
// history oldest first. A repository without commits yields an empty stream.
func Open(ctx context.Context, client contract.GitClient, repoPath string, pathFilter string) (*Stream, error) {
	repo, err := openRepository(repoPath)
	if err != nil {
		return nil, err
	}

	if _, err := repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return NewStream(io.NopCloser(strings.NewReader(""))), nil
		}
		return nil, fmt.Errorf("%w: cannot resolve HEAD in %q: %w", contract.ErrRepositoryAccess, repoPath, err)
	}

	rc, err := client.StreamCommitLog(ctx, repoPath, pathFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrRepositoryAccess, err)
	}
	return NewStream(rc), nil
}

// HeadRevision returns the commit at the tip of the current branch. The
// boolean is false when the repository has no commits yet.
func HeadRevision(repoPath string) (string, bool, error) {
	repo, err := openRepository(repoPath)
	if err != nil {
		return "", false, err
	}
	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: cannot resolve HEAD in %q: %w", contract.ErrRepositoryAccess, repoPath, err)
	}
	return head.Hash().String(), true, nil
}

// CommitTime returns the author time of a revision.
func CommitTime(repoPath string, rev string) (time.Time, error) {
	repo, err := openRepository(repoPath)
	if err != nil {
		return time.Time{}, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot resolve %q: %w", contract.ErrRepositoryAccess, rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot load commit %s: %w", contract.ErrRepositoryAccess, hash, err)
	}
	return commit.Author.When, nil
}

// Delta returns the aggregate line change between two revisions. An empty
// target means HEAD.
func Delta(ctx context.Context, client contract.GitClient, repoPath, pathFilter, baseRev, targetRev string) (schema.LineDelta, error) {
	if targetRev == "" {
		targetRev = "HEAD"
	}
	out, err := client.GetDiffNumstat(ctx, repoPath, baseRev, targetRev, pathFilter)
	if err != nil {
		return schema.LineDelta{}, fmt.Errorf("%w: %w", contract.ErrRepositoryAccess, err)
	}

	var delta schema.LineDelta
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if added, removed, ok := parseNumstat(scanner.Text()); ok {
			delta.Inserted += added
			delta.Deleted += removed
		}
	}
	if err := scanner.Err(); err != nil {
		return schema.LineDelta{}, fmt.Errorf("%w: %w", contract.ErrStreamRead, err)
	}
	return delta, nil
}

// openRepository opens the repository whose root is exactly repoPath.
func openRepository(repoPath string) (*git.Repository, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve path: %w", contract.ErrRepositoryAccess, err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrRepositoryAccess, err)
	}
	// Linked worktrees keep their refs in the main repository's git dir.
	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{EnableDotGitCommonDir: true})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open git repository at %s: %w", contract.ErrRepositoryAccess, absPath, err)
	}
	return repo, nil
}
