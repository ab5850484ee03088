package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"course-quiz-service/internal/auth"
	"course-quiz-service/internal/config"
)

// NewTokenCmd signs a bearer token for a wallet address, e.g. to bootstrap an admin.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		admin bool
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <wallet-address>",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := checkJWTSecret(cfg.Auth.JWTSecret); err != nil {
				return err
			}
			token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret).Issue(args[0], admin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "grant access to the POAP roster")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for none")
	return cmd
}
