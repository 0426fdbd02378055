package handlers

import (
	"fmt"
	"io"

	"github.com/imamik/cephprobe/internal/probe"
)

// progressPrinter writes one line per completed host.
func progressPrinter(w io.Writer) probe.Observer {
	return probe.ObserverFunc(func(p probe.Progress) {
		line := fmt.Sprintf("[%s %d/%d] %s %s", p.Operation, p.Counts.Done(), p.Total, p.Host, p.Outcome)
		if p.Err != nil {
			line += ": " + p.Err.Error()
		}
		fmt.Fprintln(w, line)
	})
}
