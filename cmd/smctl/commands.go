package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/scriptsmgr/scriptsmgr/auth"
	"github.com/scriptsmgr/scriptsmgr/cmd/scriptsmgr/config"
)

func newRootCmd() *cobra.Command {
	var configFile string
	rootCmd := &cobra.Command{
		Use:   "smctl",
		Short: "smctl can help you manage your scripts manager",
		Long: `smctl can help you manage your scripts manager.
It reads the same configuration as the server, so the salt and the session
secret it uses are the ones the server uses.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load(configFile)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the config file to use")
	rootCmd.AddCommand(saltCmd(), hashCmd(), tokenCmd(), verifyCmd())
	return rootCmd
}

func loadSalt() (string, error) {
	return auth.NewSaltStore(config.Get().Auth.SaltFile()).GetOrCreate()
}

func loadTokens() (*auth.Tokens, error) {
	a := config.Get().Auth
	return auth.NewTokens([]byte(a.JWTSecret), auth.WithLifetime(a.Lifetime()))
}

func saltCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "salt",
		Short: "Print the deployment salt, creating it if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := loadSalt()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), salt)
			return err
		},
	}
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <password>",
		Short: "Print the client hash a browser sends for password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, err := loadSalt()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), auth.DeriveHash(args[0], salt))
			return err
		},
	}
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue a session token for scripted access to the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := loadTokens()
			if err != nil {
				return err
			}
			token, err := tokens.Issue()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a session token; exits non-zero if it is invalid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := loadTokens()
			if err != nil {
				return err
			}
			if !tokens.Verify(args[0]) {
				return errors.New("token is invalid")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "token is valid")
			return err
		},
	}
}
