package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imamik/cephprobe/cmd/cephprobe/handlers"
)

// Access returns the command that only runs the SSH access bootstrap.
func Access(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Verify and bootstrap key-based SSH access to the hosts",
		Long: `Verify key-based SSH access to every configured host.

Hosts that reject the local key get it installed into authorized_keys using
the configured password. Each host ends in one status:
  OK, AUTHFAIL, TIMEOUT, NOCONN, NOTFOUND, NOPASSWD or COPYFAIL`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Access(cmd.Context(), handlers.AccessOptions{
				ConfigPath:  v.GetString("config"),
				Verbosity:   v.GetInt("verbose"),
				AskPassword: v.GetBool("access.ask-password"),
			})
		},
	}

	cmd.Flags().Bool("ask-password", false, "Prompt for the SSH password")
	bindFlags(v, "access", cmd.Flags())

	return cmd
}
