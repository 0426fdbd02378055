package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imamik/cephprobe/cmd/cephprobe/handlers"
)

// Environment-only settings.
const (
	keyS3AccessKey = "s3.access-key"
	keyS3SecretKey = "s3.secret-key"
)

// Check returns the command that runs a full readiness check.
//
// Optional flags:
//
//	--output, -o: table, json or yaml
//	--export: Write the report to a file (json or yaml by extension)
//	--metrics-file: Write probe metrics in Prometheus text format
//	--publish: Upload the report to s3://bucket/prefix
//	--ask-password: Prompt for the SSH password used for key installation
//	--skip-access: Gather facts without the SSH access bootstrap
//
// S3 keys are read from CEPHPROBE_S3_ACCESS_KEY and CEPHPROBE_S3_SECRET_KEY
// only, never from flags.
func Check(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether the configured hosts are ready for Ceph",
		Long: `Check whether the configured hosts are ready for a Ceph installation.

The check runs three phases:
  1. access: verify key-based SSH to every host, installing the local public
     key with the configured password where needed
  2. facts:  gather hardware facts from every reachable host
  3. rules:  evaluate CPU, RAM, network and disk rules per host, then quorum,
     collocation, device and subnet rules across the selected hosts

The exit code is 0 when the cluster is ready, 2 when it is not, and 1 on
any other failure.

Examples:
  # Check with the default cephprobe.yaml
  cephprobe check

  # Machine-readable output and an exported copy
  cephprobe check -o json --export report.yaml

  # Check offline from saved facts (ansible -m setup --tree facts/)
  cephprobe check --skip-access

  # Publish the report to object storage
  cephprobe check --publish s3://ceph-reports/lab --s3-endpoint http://rgw:7480`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Check(cmd.Context(), handlers.CheckOptions{
				ConfigPath:   v.GetString("config"),
				Verbosity:    v.GetInt("verbose"),
				Output:       v.GetString("check.output"),
				ExportPath:   v.GetString("check.export"),
				MetricsFile:  v.GetString("check.metrics-file"),
				Publish:      v.GetString("check.publish"),
				S3Endpoint:   v.GetString("check.s3-endpoint"),
				S3Region:     v.GetString("check.s3-region"),
				S3PathStyle:  v.GetBool("check.s3-path-style"),
				AskPassword:  v.GetBool("check.ask-password"),
				SkipAccess:   v.GetBool("check.skip-access"),
				CreateBucket: v.GetBool("check.create-bucket"),
				S3AccessKey:  v.GetString(keyS3AccessKey),
				S3SecretKey:  v.GetString(keyS3SecretKey),
			})
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "table", "Output format: table, json or yaml")
	f.String("export", "", "Write the report to this file")
	f.String("metrics-file", "", "Write probe metrics in Prometheus text format to this file")
	f.String("publish", "", "Upload the report to s3://bucket/prefix")
	f.String("s3-endpoint", "", "S3 endpoint URL (e.g. a Ceph RGW)")
	f.String("s3-region", "", "S3 region")
	f.Bool("s3-path-style", false, "Use path-style bucket addressing")
	f.Bool("create-bucket", false, "Create the publish bucket if it does not exist")
	f.Bool("ask-password", false, "Prompt for the SSH password")
	f.Bool("skip-access", false, "Skip the SSH access bootstrap")
	bindFlags(v, "check", f)

	return cmd
}
