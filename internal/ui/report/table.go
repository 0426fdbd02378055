package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/imamik/cephprobe/internal/inventory"
	"github.com/imamik/cephprobe/internal/readiness"
)

var tableHeader = []string{"", "ROLES", "HOST", "ACCESS", "CPU", "RAM", "NIC", "HDD", "SSD", "CAPACITY", "STATE"}

// WriteTable renders the host table followed by the cluster summary.
func WriteTable(w io.Writer, r *readiness.Report, color bool) error {
	p := newPalette(color)
	var b strings.Builder

	title := fmt.Sprintf("Ceph readiness: %s/%s", r.Mode, r.Source)
	b.WriteString(p.title(title))
	b.WriteString("\n\n")

	renderHosts(&b, p, r.Hosts)
	renderCluster(&b, p, r)

	_, err := io.WriteString(w, b.String())
	return err
}

func hostRow(h readiness.HostReport) []string {
	mark := ""
	if h.Selected {
		mark = selMark
	}
	row := []string{mark, h.RoleTypes, h.Name, h.Access}
	if !h.Probed {
		row = append(row, "-", "-", "-", "-", "-", "-")
	} else {
		row = append(row,
			strconv.Itoa(h.Cores),
			humanize.IBytes(uint64(h.MemoryMB)*humanize.MiByte),
			strconv.Itoa(h.NICCount),
			strconv.Itoa(len(h.HDDs)),
			strconv.Itoa(len(h.SSDs)),
			humanize.Bytes(h.CapacityBytes),
		)
	}
	return append(row, h.Verdict.State.String())
}

func renderHosts(b *strings.Builder, p palette, hosts []readiness.HostReport) {
	base := lipgloss.NewStyle().PaddingRight(1)
	stateCol := len(tableHeader) - 1

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		Headers(tableHeader...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return p.cell(base, dimStyle)
			case col == stateCol:
				return p.cell(base, stateStyle(hosts[row].Verdict.State))
			}
			return base
		})
	for _, h := range hosts {
		t.Row(hostRow(h)...)
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	for _, h := range hosts {
		if h.Verdict.Message == "" {
			continue
		}
		state := p.text(stateStyle(h.Verdict.State))
		fmt.Fprintf(b, "  %s  %s\n", h.Name, state(h.Verdict.Message))
	}
}

func stateStyle(s inventory.State) lipgloss.Style {
	switch {
	case s.OK():
		return readyStyle
	case s.Errors > 0:
		return failedStyle
	case s.Kind == inventory.StateUnknown:
		return dimStyle
	default:
		return warningStyle
	}
}

func renderCluster(b *strings.Builder, p palette, r *readiness.Report) {
	b.WriteString("\n")
	b.WriteString(p.section("Cluster"))
	b.WriteString("\n")

	icon, style := checkMark, p.ready
	switch {
	case r.Cluster.HasErrors():
		icon, style = crossMark, p.failed
	case len(r.Cluster.Problems) > 0:
		icon, style = warnMark, p.warning
	}
	verdict := r.Cluster.State.String()
	if r.Cluster.Message != "" {
		verdict += "  " + r.Cluster.Message
	}
	fmt.Fprintf(b, "  %s %s\n", style(icon), style(verdict))

	fmt.Fprintf(b, "  %-16s %s\n", "Public network", listOrNone(r.Network.Public))
	fmt.Fprintf(b, "  %-16s %s\n", "Cluster network", listOrNone(r.Network.Cluster))
	fmt.Fprintf(b, "  %-16s %s\n", "HDD devices", listOrNone(r.Devices.HDDs))
	fmt.Fprintf(b, "  %-16s %s\n", "SSD devices", listOrNone(r.Devices.SSDs))
	fmt.Fprintf(b, "  %-16s %s\n", "Access", p.dim(counts(r.Access.Succeeded, r.Access.Failed, r.Access.Skipped, r.Access.Unreachable)))
	fmt.Fprintf(b, "  %-16s %s\n", "Facts", p.dim(counts(r.Facts.Succeeded, r.Facts.Failed, r.Facts.Skipped, r.Facts.Unreachable)))

	selected := len(r.SelectedHosts())
	fmt.Fprintf(b, "  %-16s %d of %d\n", "Selected hosts", selected, len(r.Hosts))
}

func counts(ok, failed, skipped, unreachable int) string {
	return fmt.Sprintf("%d ok, %d failed, %d skipped, %d unreachable", ok, failed, skipped, unreachable)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
