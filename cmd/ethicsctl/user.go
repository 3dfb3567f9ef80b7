package main

import (
	"fmt"

	"ethics-review-api/models"
	"ethics-review-api/services"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user account",
	Long: `Create a user with a bcrypt-hashed password.

Examples:
  ethicsctl user add --name "Dr. Somchai" --email somchai@example.org --password 'S3cret!pass' --role reviewer`,
	RunE: runUserAdd,
}

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "login email (required)")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "initial password (required)")
	userAddCmd.Flags().StringVar(&userRole, "role", string(models.RoleResearcher), "researcher, admin, scrutiny or reviewer")
	_ = userAddCmd.MarkFlagRequired("email")
	_ = userAddCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	role := models.Role(userRole)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", userRole)
	}

	db, err := openDB()
	if err != nil {
		return err
	}

	user, err := services.NewGormAccounts(db).Register(cmd.Context(), services.NewUser{
		Name:     userName,
		Email:    userEmail,
		Password: userPassword,
		Role:     role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.Email, user.UserID)
	return nil
}
