// Package gitlog turns a repository's commit log into a stream of per-commit
// line deltas.
package gitlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/codemonitor/internal/contract"
	"github.com/huangsam/codemonitor/schema"
)

// maxLineSize bounds a single log line; paths longer than this are an error.
const maxLineSize = 1024 * 1024

// binaryMarker replaces line counts for binary files in numstat output.
const binaryMarker = "-"

var numstatPattern = regexp.MustCompile(`^(\d+|-)\t(\d+|-)\t.+`)

type parseState int

const (
	awaitingHeader parseState = iota
	inCommitBody
)

// Stream is a forward-only sequence of commit deltas read from git log output.
// Use it like bufio.Scanner: loop on Next, read Delta, then check Err.
type Stream struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	state   parseState
	pending schema.CommitDelta
	current schema.CommitDelta
	err     error
	done    bool
	closed  bool
}

var _ contract.CommitStream = &Stream{} // Compile-time check

// NewStream parses the output read from rc. The stream owns rc and closes it
// when input is exhausted or Close is called.
func NewStream(rc io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Stream{rc: rc, scanner: scanner}
}

// Next advances to the next commit. It returns false at the end of the log
// or on the first error.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		if strings.HasPrefix(line, contract.LogHeaderPrefix) {
			next, err := parseHeader(line)
			if err != nil {
				s.fail(err)
				return false
			}
			if s.state == inCommitBody {
				s.current = s.pending
				s.pending = next
				return true
			}
			s.pending = next
			s.state = inCommitBody
			continue
		}
		if s.state != inCommitBody {
			continue
		}
		if added, removed, ok := parseNumstat(line); ok {
			s.pending.Inserted += added
			s.pending.Deleted += removed
		}
	}

	if err := s.scanner.Err(); err != nil {
		s.fail(fmt.Errorf("%w: %w", contract.ErrStreamRead, err))
		return false
	}

	s.done = true
	if err := s.closeReader(); err != nil {
		s.err = fmt.Errorf("%w: %w", contract.ErrStreamRead, err)
		return false
	}
	if s.state == inCommitBody {
		s.current = s.pending
		s.state = awaitingHeader
		return true
	}
	return false
}

// Delta returns the commit produced by the last successful call to Next.
func (s *Stream) Delta() schema.CommitDelta {
	return s.current
}

// Err returns the first error hit while reading, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying reader. Closing before the end stops the
// producing process.
func (s *Stream) Close() error {
	s.done = true
	return s.closeReader()
}

func (s *Stream) fail(err error) {
	s.err = err
	s.done = true
	_ = s.closeReader()
}

func (s *Stream) closeReader() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rc.Close()
}

// parseHeader reads a "--<hash>|<RFC3339 date>" line.
func parseHeader(line string) (schema.CommitDelta, error) {
	body := strings.TrimPrefix(line, contract.LogHeaderPrefix)
	hash, date, ok := strings.Cut(body, "|")
	hash = strings.TrimSpace(hash)
	if !ok || hash == "" {
		return schema.CommitDelta{}, fmt.Errorf("%w: malformed commit header %q", contract.ErrStreamRead, line)
	}
	authoredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(date))
	if err != nil {
		return schema.CommitDelta{}, fmt.Errorf("%w: bad author date in header %q: %w", contract.ErrStreamRead, line, err)
	}
	return schema.CommitDelta{ID: hash, AuthoredAt: authoredAt}, nil
}

// parseNumstat reads an "<added>\t<removed>\t<path>" line. Binary entries
// count as zero. Lines that do not match are reported as not ok.
func parseNumstat(line string) (int64, int64, bool) {
	if !numstatPattern.MatchString(line) {
		return 0, 0, false
	}
	fields := strings.SplitN(line, "\t", 3)
	added, err := parseCount(fields[0])
	if err != nil {
		return 0, 0, false
	}
	removed, err := parseCount(fields[1])
	if err != nil {
		return 0, 0, false
	}
	return added, removed, true
}

func parseCount(s string) (int64, error) {
	if s == binaryMarker {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.New("count out of range")
	}
	return n, nil
}
