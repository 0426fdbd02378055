package readiness

import (
	"context"
	"fmt"
	"sync"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/cephprobe/internal/facts"
	"github.com/imamik/cephprobe/internal/inventory"
	"github.com/imamik/cephprobe/internal/platform/ssh"
	"github.com/imamik/cephprobe/internal/probe"
	"github.com/imamik/cephprobe/internal/rules"
)

var (
	mon = inventory.RoleMonitor
	osd = inventory.RoleStorage
	rgw = inventory.RoleGateway
)

type fixture struct {
	net   *network
	creds *fakeCredentials
	inv   *inventory.Inventory
}

func newFixture() *fixture {
	inv, err := inventory.New()
	Expect(err).NotTo(HaveOccurred())
	return &fixture{net: newNetwork(), creds: newFakeCredentials(), inv: inv}
}

// host adds a reachable machine that already trusts the local key.
func (f *fixture) host(name string, hw hardware, roles ...inventory.Role) *remote {
	h, err := inventory.NewHost(name, roles...)
	Expect(err).NotTo(HaveOccurred())
	Expect(f.inv.Add(h)).To(Succeed())
	return f.net.add(name, &remote{authorizedKeys: f.creds.pub + "\n", facts: machine(hw)})
}

func (f *fixture) checker(opts Options) *Checker {
	opts.User = "root"
	opts.Transport = f.net
	opts.Credentials = f.creds
	opts.Facts = f.net
	c, err := New(f.inv, opts)
	Expect(err).NotTo(HaveOccurred())
	return c
}

func storage() hardware { return hardware{hdds: []string{"sdb", "sdc"}} }

func hostReport(r *Report, name string) HostReport {
	for _, h := range r.Hosts {
		if h.Name == name {
			return h
		}
	}
	ginkgo.Fail("no host report for " + name)
	return HostReport{}
}

// fiveHosts builds three monitors and three storage hosts with host A
// carrying both roles.
func fiveHosts(f *fixture, aRoles ...inventory.Role) {
	f.host("a", storage(), aRoles...)
	f.host("b", hardware{}, mon)
	f.host("c", hardware{}, mon)
	f.host("d", storage(), osd)
	f.host("e", storage(), osd)
}

var _ = ginkgo.Describe("Checker", func() {
	var (
		ctx context.Context
		f   *fixture
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
	})

	ginkgo.Describe("production cluster scenarios", func() {
		ginkgo.It("passes a five host cluster with one collocated monitor on the community channel", func() {
			fiveHosts(f, mon, osd)
			report, err := f.checker(Options{Mode: rules.ModeProd, Source: rules.SourceCommunity}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Cluster.Problems).To(BeEmpty())
			Expect(report.Cluster.State.String()).To(Equal("OK"))
			Expect(report.Ready()).To(BeTrue())
			for _, h := range report.Hosts {
				Expect(h.Verdict.State.String()).To(Equal("OK"), "host %s: %s", h.Name, h.Verdict.Message)
				Expect(h.Access).To(Equal("OK"))
				Expect(h.Probed).To(BeTrue())
			}
			Expect(hostReport(report, "a").RoleTypes).To(Equal("MO.."))
			Expect(report.Network.Public).To(Equal([]string{"10.0.0.0/24"}))
			Expect(report.Network.Cluster).To(Equal([]string{"10.0.0.0/24"}))
			Expect(report.Devices.HDDs).To(Equal([]string{"sdb", "sdc"}))
			Expect(report.Access).To(Equal(probe.Counts{Succeeded: 5}))
			Expect(report.Facts).To(Equal(probe.Counts{Succeeded: 5}))
			Expect(report.ID).NotTo(BeEmpty())
		})

		ginkgo.It("rejects collocation on the vendor channel", func() {
			fiveHosts(f, mon, osd, rgw)
			report, err := f.checker(Options{Mode: rules.ModeProd, Source: rules.SourceVendorCDN}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(report.Ready()).To(BeFalse())
			Expect(report.Cluster.Problems).To(ConsistOf(rules.Problem{
				Severity: rules.SeverityError,
				Rule:     "collocation",
				Message:  "collocation unsupported (a)",
			}))
			Expect(report.Cluster.State.String()).To(Equal("NOTOK(1Err)"))
		})

		ginkgo.It("allows the monitor/manager pairing on the vendor channel", func() {
			f.host("a", hardware{}, mon)
			f.host("b", hardware{}, mon)
			f.host("c", hardware{}, mon)
			f.host("d", storage(), osd)
			f.host("e", storage(), osd)
			f.host("g", storage(), osd)
			report, err := f.checker(Options{Mode: rules.ModeProd, Source: rules.SourceVendorCDN}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Cluster.Problems).To(BeEmpty())
		})
	})

	ginkgo.Describe("access bootstrap", func() {
		ginkgo.It("provisions the key with a password and connects directly on the next cycle", func() {
			fiveHosts(f, mon, osd)
			fresh, _ := f.net.get("d")
			fresh.authorizedKeys = "ssh-rsa AAAAB3NzaC1yc2EAAAADAQABAAABAQC7 other@host\n"
			fresh.password = "secret"

			var mu sync.Mutex
			var transitions []ssh.Status
			c := f.checker(Options{
				Password: "secret",
				OnAccessChange: func(host string, status ssh.Status) {
					if host == "d" {
						mu.Lock()
						transitions = append(transitions, status)
						mu.Unlock()
					}
				},
			})

			_, err := c.Bootstrap(ctx)
			Expect(err).NotTo(HaveOccurred())
			res, ok := c.Access("d")
			Expect(ok).To(BeTrue())
			Expect(res.Status).To(Equal(ssh.StatusConnected))
			Expect(res.KeyInstalled).To(BeTrue())
			Expect(transitions).To(Equal([]ssh.Status{
				ssh.StatusChecking, ssh.StatusAuthFailed, ssh.StatusProvisioning, ssh.StatusConnected,
			}))
			Expect(fresh.authorizedKeys).To(ContainSubstring("other@host"))
			Expect(fresh.authorizedKeys).To(ContainSubstring(f.creds.pub))

			transitions = nil
			_, err = c.Bootstrap(ctx)
			Expect(err).NotTo(HaveOccurred())
			res, _ = c.Access("d")
			Expect(res.Status).To(Equal(ssh.StatusConnected))
			Expect(res.KeyInstalled).To(BeFalse())
			Expect(transitions).To(Equal([]ssh.Status{ssh.StatusChecking, ssh.StatusConnected}))
		})

		ginkgo.It("stops at the missing password condition and skips fact gathering", func() {
			fiveHosts(f, mon, osd)
			locked, _ := f.net.get("e")
			locked.authorizedKeys = ""
			locked.password = "secret"

			report, err := f.checker(Options{Mode: rules.ModeProd}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			e := hostReport(report, "e")
			Expect(e.Access).To(Equal("NOPASSWD"))
			Expect(e.Probed).To(BeFalse())
			Expect(e.Verdict.Message).To(HavePrefix("Error:ssh access NOPASSWD"))
			Expect(e.Verdict.Message).To(ContainSubstring("host has not been probed"))
			Expect(locked.authorizedKeys).To(BeEmpty(), "no provisioning without a password")

			Expect(report.Access).To(Equal(probe.Counts{Succeeded: 4, Failed: 1}))
			Expect(report.Facts).To(Equal(probe.Counts{Succeeded: 4, Skipped: 1}))
			Expect(report.Ready()).To(BeFalse())
			Expect(report.Cluster.Problems).To(ContainElement(HaveField("Rule", "host-errors")))
		})

		ginkgo.It("isolates unreachable hosts and ignores them once deselected", func() {
			fiveHosts(f, mon, osd)
			f.host("f", storage(), osd).dialErr = fmt.Errorf("dial tcp: %w", ssh.ErrUnreachable)
			c := f.checker(Options{Mode: rules.ModeProd})

			report, err := c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hostReport(report, "f").Access).To(Equal("NOCONN"))
			Expect(report.Access.Unreachable).To(Equal(1))
			Expect(report.Ready()).To(BeFalse())

			h, _ := f.inv.Get("f")
			h.SetSelected(false)
			report, err = c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Ready()).To(BeTrue(), "%v", report.Cluster.Problems)
			Expect(hostReport(report, "f").Verdict.State.OK()).To(BeFalse())
		})

		ginkgo.It("reports hosts that cannot be resolved", func() {
			fiveHosts(f, mon, osd)
			h, err := inventory.NewHost("ghost", osd)
			Expect(err).NotTo(HaveOccurred())
			Expect(f.inv.Add(h)).To(Succeed())

			report, err := f.checker(Options{}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hostReport(report, "ghost").Access).To(Equal("NOTFOUND"))
		})
	})

	ginkgo.Describe("fact ingestion", func() {
		ginkgo.It("fails a host with malformed facts instead of defaulting", func() {
			fiveHosts(f, mon, osd)
			bad, _ := f.net.get("d")
			bad.factsErr = &facts.DecodeError{Field: "ansible_devices", Reason: "missing"}

			report, err := f.checker(Options{Mode: rules.ModeProd}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			d := hostReport(report, "d")
			Expect(d.Probed).To(BeFalse())
			Expect(d.Verdict.Message).To(ContainSubstring("ansible_devices"))
			Expect(d.Verdict.Message).To(HavePrefix("Error:"))
			Expect(report.Facts.Failed).To(Equal(1))
		})

		ginkgo.It("rejects facts that fail validation", func() {
			fiveHosts(f, mon, osd)
			bad, _ := f.net.get("d")
			bad.facts.MemoryMB = 0

			report, err := f.checker(Options{}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hostReport(report, "d").Verdict.Message).To(ContainSubstring(inventory.ErrInvalidFacts.Error()))
		})

		ginkgo.It("replaces facts on every run", func() {
			fiveHosts(f, mon, osd)
			c := f.checker(Options{Mode: rules.ModeProd})
			report, err := c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hostReport(report, "d").HDDs).To(Equal([]string{"sdb", "sdc"}))

			changed, _ := f.net.get("d")
			changed.facts = machine(hardware{hdds: []string{"sdx"}})
			report, err = c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(hostReport(report, "d").HDDs).To(Equal([]string{"sdx"}))
			Expect(report.Cluster.Problems).To(ContainElement(HaveField("Rule", "device-names")))
		})

		ginkgo.It("warns about storage hosts with little headroom", func() {
			f.host("a", hardware{cores: 2, memoryMB: 8000, hdds: []string{"sdb", "sdc"}}, mon, osd)
			report, err := f.checker(Options{Mode: rules.ModeDev}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			a := hostReport(report, "a")
			Expect(a.Verdict.State.String()).To(Equal("NOTOK(2Wrn)"))
			Expect(a.Verdict.Message).To(Equal("Warning:CPU low, RAM low"))
			Expect(report.Ready()).To(BeTrue(), "warnings do not block")
		})

		ginkgo.It("gathers without access bootstrap when asked to", func() {
			fiveHosts(f, mon, osd)
			locked, _ := f.net.get("b")
			locked.authorizedKeys = ""

			report, err := f.checker(Options{SkipAccess: true}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Facts.Succeeded).To(Equal(5))
			Expect(hostReport(report, "b").Access).To(Equal("-"))
		})
	})

	ginkgo.Describe("progress", func() {
		ginkgo.It("reports every host once per phase", func() {
			fiveHosts(f, mon, osd)
			var seen []probe.Progress
			orc := probe.New(probe.WithObserver(probe.ObserverFunc(func(p probe.Progress) {
				seen = append(seen, p)
			})))

			_, err := f.checker(Options{Orchestrator: orc}).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(HaveLen(10))
			Expect(seen[4].Operation).To(Equal(probe.OperationAccess))
			Expect(seen[4].Counts.Done()).To(Equal(5))
			Expect(seen[9].Operation).To(Equal(probe.OperationFacts))
			Expect(seen[9].Counts.Succeeded).To(Equal(5))
		})
	})

	ginkgo.Describe("construction", func() {
		ginkgo.It("validates its inputs", func() {
			_, err := New(nil, Options{})
			Expect(err).To(HaveOccurred())

			_, err = New(f.inv, Options{Mode: "staging"})
			Expect(err).To(HaveOccurred())

			c, err := New(f.inv, Options{})
			Expect(err).NotTo(HaveOccurred())
			_, err = c.Bootstrap(ctx)
			Expect(err).To(MatchError(ContainSubstring("transport")))
			_, err = c.Gather(ctx)
			Expect(err).To(MatchError(ContainSubstring("fact source")))
		})
	})
})
