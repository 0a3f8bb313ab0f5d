package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/franz/osteo-vault/internal/backup"
	"github.com/franz/osteo-vault/internal/util"
)

var importCmd = &cobra.Command{
	Use:   "import <backup-file>",
	Short: "Destructively restore the database from a backup document",
	Long: `Restore the database from a backup document. This is destructive:
all current records are replaced by the document's contents. The
document is validated in full before anything is cleared, and the
replace runs as one transaction, so a failed import leaves the
existing data untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("force", false, "skip the confirmation prompt")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	force, _ := cmd.Flags().GetBool("force")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	audit := openAuditLogger()
	defer audit.Close()

	// Validation happens fully before any destructive action
	doc, err := backup.ReadFile(path)
	if err != nil {
		audit.LogImport(path, 0, err)
		return err
	}

	util.InfoLog("Backup document: %d patients, %d sessions, %d media (exported %s)",
		len(doc.Patients), len(doc.Sessions), len(doc.Media), doc.ExportDate)

	if !confirm("Replace ALL current records with this backup?", force) {
		return fmt.Errorf("import cancelled")
	}

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(doc.Rows(),
			progressbar.OptionSetDescription("Restoring"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	progress := func(done int) {
		if bar != nil {
			bar.Set(done)
		}
	}

	rows, err := backup.Import(db, doc, progress)
	if err != nil {
		audit.LogImport(path, 0, err)
		return fmt.Errorf("import failed, existing data unchanged: %w", err)
	}

	if bar != nil {
		bar.Finish()
	}

	audit.LogImport(path, rows, nil)
	util.SuccessLog("Restored %d rows from %s", rows, path)

	return nil
}
