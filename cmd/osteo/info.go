package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/osteo-vault/internal/store"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show database path, schema version and row counts",
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	counts, err := db.Counts()
	if err != nil {
		return err
	}

	fmt.Printf("Database:       %s\n", viper.GetString("db"))
	fmt.Printf("Schema version: %d\n", version)
	fmt.Printf("SQLite version: %s\n", store.SQLiteVersion())
	fmt.Printf("Patients:       %d\n", counts["patients"])
	fmt.Printf("Sessions:       %d\n", counts["sessions"])
	fmt.Printf("Media assets:   %d\n", counts["media_metadata"])

	if err := db.CheckIntegrity(); err != nil {
		return err
	}
	fmt.Println("Integrity:      ok")

	return nil
}
