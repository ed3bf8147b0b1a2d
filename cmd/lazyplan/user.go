package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazyplan/internal/auth"
	"github.com/Joseda-hg/lazyplan/internal/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var newUser model.UserInput

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user. Without --password the default password is used.

Examples:
  lazyplan user create --email ana@example.com --first Ana --last Ruiz --role MANAGER`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := current.openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		authService, err := current.authService(store)
		if err != nil {
			return err
		}

		user, err := authService.CreateUser(cmd.Context(), newUser)
		if err != nil {
			return err
		}

		current.logger.Info("user created", "user", user.ID, "role", user.Role)
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", user.Email, user.Role)
		if newUser.Password == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Initial password: %s\n", auth.DefaultPassword)
		}
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&newUser.Email, "email", "", "email address")
	userCreateCmd.Flags().StringVar(&newUser.FirstName, "first", "", "first name")
	userCreateCmd.Flags().StringVar(&newUser.LastName, "last", "", "last name")
	userCreateCmd.Flags().StringVar(&newUser.Role, "role", string(model.RoleUser), "USER, MANAGER or ADMIN")
	userCreateCmd.Flags().StringVar(&newUser.Password, "password", "", "initial password")
	_ = userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd)
}
