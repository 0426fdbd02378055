package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/imamik/cephprobe/cmd/cephprobe/handlers"
)

// Keygen returns the command that creates the local SSH key pair.
func Keygen(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create the local SSH key pair if it does not exist",
		Long: `Create the RSA key pair used for host access and print the public key.

An existing key pair is never replaced. Without --key-dir the key directory
comes from the configuration file, falling back to ~/.ssh.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Keygen(v.GetString("config"), v.GetString("keygen.key-dir"))
		},
	}

	cmd.Flags().String("key-dir", "", "Directory holding id_rsa and id_rsa.pub")
	bindFlags(v, "keygen", cmd.Flags())

	return cmd
}
