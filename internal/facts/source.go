package facts

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/imamik/cephprobe/internal/inventory"
)

var (
	// ErrHostUnreachable is returned when the fact run could not reach a host.
	ErrHostUnreachable = errors.New("fact gathering could not reach host")
	// ErrGatherFailed is returned when the fact run reached the host but failed.
	ErrGatherFailed = errors.New("fact gathering failed")
)

// Source gathers facts for one host.
type Source interface {
	Gather(ctx context.Context, host string) (*inventory.Facts, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, host string) (*inventory.Facts, error)

// Gather calls f.
func (f SourceFunc) Gather(ctx context.Context, host string) (*inventory.Facts, error) {
	return f(ctx, host)
}

// DefaultCommand is the ad-hoc setup invocation; the hostname is appended.
var DefaultCommand = []string{"ansible", "-m", "setup", "-o"}

// DefaultTimeout bounds one fact run.
const DefaultTimeout = 60 * time.Second

// CommandSource runs an ad-hoc fact-gathering command per host and parses its
// one-line output ("host | SUCCESS => {...}").
type CommandSource struct {
	Command []string
	Timeout time.Duration

	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewCommandSource returns a source running command, or DefaultCommand when
// command is empty.
func NewCommandSource(command []string, timeout time.Duration) *CommandSource {
	if len(command) == 0 {
		command = DefaultCommand
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandSource{Command: command, Timeout: timeout, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	// ansible exits non-zero for failed or unreachable hosts but still
	// prints the result line.
	return out, nil
}

// Gather implements Source.
func (s *CommandSource) Gather(ctx context.Context, host string) (*inventory.Facts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	args := append(append([]string{}, s.Command[1:]...), host)
	out, err := s.run(ctx, s.Command[0], args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrGatherFailed, host, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrGatherFailed, host, err)
	}
	return ParseOneline(host, out)
}

// ParseOneline extracts the facts of host from ad-hoc one-line output.
func ParseOneline(host string, out []byte) (*inventory.Facts, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		name, rest, ok := strings.Cut(line, " | ")
		if !ok || strings.TrimSpace(name) != host {
			continue
		}
		status, payload, ok := strings.Cut(rest, " => ")
		if !ok {
			return nil, fmt.Errorf("%w: %s: unparsable result line", ErrGatherFailed, host)
		}
		switch strings.TrimSuffix(strings.TrimSpace(status), "!") {
		case "SUCCESS":
			return Decode([]byte(payload))
		case "UNREACHABLE":
			return nil, fmt.Errorf("%w: %s", ErrHostUnreachable, host)
		default:
			return nil, fmt.Errorf("%w: %s: %s", ErrGatherFailed, host, strings.TrimSpace(status))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGatherFailed, host, err)
	}
	return nil, fmt.Errorf("%w: %s: no result for host", ErrGatherFailed, host)
}

// DirSource reads facts previously saved with `ansible --tree <dir>`, one
// file per host.
type DirSource struct {
	Dir string
}

// Gather implements Source.
func (s DirSource) Gather(_ context.Context, host string) (*inventory.Facts, error) {
	if host == "" || strings.ContainsAny(host, `/\`) || host == "." || host == ".." {
		return nil, fmt.Errorf("invalid hostname %q", host)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, host))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGatherFailed, host, err)
	}
	var probe struct {
		Unreachable bool `json:"unreachable"`
	}
	if json.Unmarshal(data, &probe) == nil && probe.Unreachable {
		return nil, fmt.Errorf("%w: %s", ErrHostUnreachable, host)
	}
	return Decode(data)
}
