package main

import (
	"fmt"
	"log"
	"os"

	"ethics-review-api/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "ethicsctl",
	Short: "Maintenance commands for the ethics review database",
	Long: `ethicsctl runs one-off maintenance against the MySQL database used by
the ethics review API. Connection settings come from the same DB_* variables
the server reads, optionally loaded from an env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("No %s file found, using environment variables", envFile)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "env file to load before connecting")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(hashPasswordsCmd)
}

// openDB connects using the DB_* environment.
func openDB() (*gorm.DB, error) {
	return config.InitDB()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
