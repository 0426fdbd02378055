package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/cephprobe/internal/platform/s3"
	"github.com/imamik/cephprobe/internal/probe"
	"github.com/imamik/cephprobe/internal/readiness"
	"github.com/imamik/cephprobe/internal/ui/report"
)

// CheckOptions are the check command inputs.
type CheckOptions struct {
	ConfigPath  string
	Verbosity   int
	Output      string
	ExportPath  string
	MetricsFile string
	AskPassword bool
	SkipAccess  bool

	Publish      string
	S3Endpoint   string
	S3Region     string
	S3PathStyle  bool
	CreateBucket bool
	// Static S3 keys; empty keys use the default AWS credential chain.
	S3AccessKey string
	S3SecretKey string
}

// Check runs the access, facts and rules phases and renders the report.
// It returns ErrNotReady when the cluster verdict has errors.
func Check(ctx context.Context, opts CheckOptions) error {
	format, err := report.ParseFormat(opts.Output)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	log := newLogger(opts.Verbosity)

	var password string
	if opts.AskPassword && !opts.SkipAccess {
		if password, err = promptPassword(ctx, cfg.SSH.User); err != nil {
			return err
		}
	}

	registry := prometheus.NewRegistry()
	metrics, err := probe.NewMetrics(registry)
	if err != nil {
		return err
	}

	setup := checkerSetup{
		cfg:        cfg,
		log:        log,
		password:   password,
		skipAccess: opts.SkipAccess,
		withFacts:  true,
		metrics:    metrics,
	}
	if isTerminal(stderr) || opts.Verbosity > 0 {
		setup.observer = progressPrinter(stderr)
	}

	checker, err := newChecker(ctx, setup)
	if err != nil {
		return err
	}

	rep, err := checker.Run(ctx)
	if err != nil {
		return err
	}

	color := format == report.FormatTable && isTerminal(stdout)
	if err := report.Write(stdout, rep, format, color); err != nil {
		return err
	}

	if opts.ExportPath != "" {
		if err := exportReport(rep, opts.ExportPath); err != nil {
			return err
		}
		log.Info("report exported", "path", opts.ExportPath)
	}

	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, registry); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if opts.Publish != "" {
		uri, err := publishReport(ctx, rep, opts)
		if err != nil {
			return err
		}
		log.Info("report published", "uri", uri)
	}

	if !rep.Ready() {
		return ErrNotReady
	}
	return nil
}

// exportFormat picks YAML for .yaml/.yml files and JSON otherwise.
func exportFormat(path string) report.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return report.FormatYAML
	}
	return report.FormatJSON
}

func exportReport(rep *readiness.Report, path string) error {
	data, err := report.Marshal(rep, exportFormat(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// reportObjectName names an uploaded report by time and run ID.
func reportObjectName(rep *readiness.Report) string {
	id := rep.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("cephprobe-%s-%s.json", rep.GeneratedAt.UTC().Format("20060102T150405Z"), id)
}

func publishReport(ctx context.Context, rep *readiness.Report, opts CheckOptions) (string, error) {
	loc, err := s3.ParseLocation(opts.Publish)
	if err != nil {
		return "", err
	}
	client, err := s3.NewClient(ctx, s3.Options{
		Endpoint:  opts.S3Endpoint,
		Region:    opts.S3Region,
		AccessKey: opts.S3AccessKey,
		SecretKey: opts.S3SecretKey,
		PathStyle: opts.S3PathStyle,
	})
	if err != nil {
		return "", err
	}
	data, err := report.Marshal(rep, report.FormatJSON)
	if err != nil {
		return "", err
	}
	return s3.NewPublisher(client, loc, opts.CreateBucket).
		Publish(ctx, reportObjectName(rep), report.ContentType(report.FormatJSON), data)
}
