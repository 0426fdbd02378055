package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/imamik/cephprobe/internal/platform/ssh"
)

// WriteAccess renders one line per access result.
func WriteAccess(w io.Writer, results []ssh.Result, color bool) error {
	p := newPalette(color)
	width := len("HOST")
	for _, r := range results {
		width = max(width, len(r.Host))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s %s\n", p.dim("    "), p.dim(fmt.Sprintf("%-*s", width, "HOST")), p.dim("STATUS"))
	for _, r := range results {
		icon, style := checkMark, p.ready
		if !r.Status.OK() {
			icon, style = crossMark, p.failed
		}
		line := r.Status.String()
		if r.KeyInstalled {
			line += " (key installed)"
		} else if !r.Status.OK() {
			line += " " + p.dim(r.Status.Description())
		}
		fmt.Fprintf(&b, "  %s %-*s %s\n", style(icon), width, r.Host, style(line))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
