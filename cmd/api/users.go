package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wikid82/formguard/internal/services"
)

func createAdminCommand() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create-admin <email> <password>",
		Short: "Create an admin account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := services.NewAuthService(env.db, env.cfg).Register(args[0], args[1], name)
			if err != nil {
				return err
			}
			fmt.Printf("created admin %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Administrator", "display name")
	return cmd
}

func resetPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email> <new-password>",
		Short: "Set a new password and clear any lockout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.NewAuthService(env.db, env.cfg).ResetPassword(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("password updated for %s\n", args[0])
			return nil
		},
	}
}
