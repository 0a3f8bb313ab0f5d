package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/osteo-vault/internal/util"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every table in the database",
	Long: `Clear all patients, sessions, media and the practitioner profile.
The schema is preserved; a default profile is recreated on next use.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().Bool("force", false, "skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	audit := openAuditLogger()
	defer audit.Close()

	if !confirm("Delete ALL records from the database?", force) {
		return fmt.Errorf("reset cancelled")
	}

	if err := db.ResetAll(); err != nil {
		audit.LogError("reset", err)
		return fmt.Errorf("reset failed: %w", err)
	}

	audit.LogReset()
	util.SuccessLog("Database cleared")

	return nil
}
