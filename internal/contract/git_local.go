package contract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// LogHeaderPrefix marks the header line of each commit in the streamed log.
const LogHeaderPrefix = "--"

// commitLogFormat renders one header per commit as "--<hash>|<strict ISO author date>".
const commitLogFormat = "--pretty=format:" + LogHeaderPrefix + "%H|%aI"

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// Run executes a git command and returns its stdout output.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	fullArgs := append([]string{"-C", repoPath}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s. If this is not a Git repository, verify the path or run 'git init'", repoPath, stderr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// CommitLogArgs returns the git arguments that list every commit oldest first
// with per-file numstat lines.
func CommitLogArgs(pathFilter string) []string {
	args := []string{
		"log",
		"--reverse",
		"--topo-order",
		"--numstat",
		commitLogFormat,
	}
	if pathFilter != "" {
		args = append(args, "--", pathFilter)
	}
	return args
}

// StreamCommitLog implements the GitClient interface.
func (c *LocalGitClient) StreamCommitLog(ctx context.Context, repoPath string, pathFilter string) (io.ReadCloser, error) {
	fullArgs := append([]string{"-C", repoPath}, CommitLogArgs(pathFilter)...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)

	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("git log pipe failed: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return &processReader{stdout: stdout, cmd: cmd, stderr: stderr, repoPath: repoPath}, nil
}

// GetDiffNumstat implements the GitClient interface.
func (c *LocalGitClient) GetDiffNumstat(ctx context.Context, repoPath string, baseRef string, targetRef string, pathFilter string) ([]byte, error) {
	args := []string{
		"diff", "--numstat",
		baseRef + ".." + targetRef,
	}
	if pathFilter != "" {
		args = append(args, "--", pathFilter)
	}
	return c.Run(ctx, repoPath, args...)
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// processReader exposes the stdout of a running git process. Close reaps the
// process; a reader closed before EOF kills it first.
type processReader struct {
	stdout   io.ReadCloser
	cmd      *exec.Cmd
	stderr   *bytes.Buffer
	repoPath string
	eof      bool
	closed   bool
}

func (p *processReader) Read(buf []byte) (int, error) {
	n, err := p.stdout.Read(buf)
	if errors.Is(err, io.EOF) {
		p.eof = true
	}
	return n, err
}

func (p *processReader) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true

	if !p.eof {
		_ = p.stdout.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		_ = p.cmd.Wait()
		return nil
	}

	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("git log failed in %q: %s", p.repoPath, strings.TrimSpace(p.stderr.String()))
	}
	return err
}
