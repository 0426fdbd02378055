// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that set flags, e.g.
// CEPHPROBE_CONFIG, CEPHPROBE_VERBOSE or CEPHPROBE_CHECK_PUBLISH.
const EnvPrefix = "CEPHPROBE"

// Root returns the root command for the cephprobe CLI.
func Root() *cobra.Command {
	v := newSettings()

	cmd := &cobra.Command{
		Use:           "cephprobe",
		Short:         "Check hosts for Ceph installation readiness",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "cephprobe.yaml", "Path to configuration file")
	cmd.PersistentFlags().IntP("verbose", "v", 0, "Log verbosity (0-2)")
	// These should never fail as flags are defined above
	_ = v.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))   //nolint:errcheck
	_ = v.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose")) //nolint:errcheck

	cmd.AddCommand(Check(v))
	cmd.AddCommand(Access(v))
	cmd.AddCommand(Keygen(v))
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

func newSettings() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags binds every flag in fs to the key "<command>.<flag>".
func bindFlags(v *viper.Viper, command string, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(command+"."+f.Name, f) //nolint:errcheck
	})
}
