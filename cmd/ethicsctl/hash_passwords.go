package main

import (
	"fmt"

	"ethics-review-api/services"

	"github.com/spf13/cobra"
)

var hashPasswordsCmd = &cobra.Command{
	Use:   "hash-passwords",
	Short: "Hash any plaintext passwords left in the users table",
	Long: `Rows whose password is not already a bcrypt hash are rewritten with
one. Already hashed rows are skipped, so the command is safe to re-run.`,
	RunE: runHashPasswords,
}

func runHashPasswords(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	updated, err := services.NewGormAccounts(db).HashLegacyPasswords(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password migration completed: %d user(s) updated\n", updated)
	return nil
}
