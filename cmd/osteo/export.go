package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/franz/osteo-vault/internal/backup"
	"github.com/franz/osteo-vault/internal/util"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all records to a portable backup document",
	Long: `Export every patient and session record plus the practitioner profile
to a single JSON document. The default filename follows the
osteo_backup_<date>.json convention. Photos are excluded unless
--with-media is given; media-inclusive backups are large but restore
the photo library too.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file (default osteo_backup_<date>.json)")
	exportCmd.Flags().Bool("with-media", false, "embed photos in the backup document")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	withMedia, _ := cmd.Flags().GetBool("with-media")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	audit := openAuditLogger()
	defer audit.Close()

	if output == "" {
		output = backup.BackupFilename(time.Now())
	}

	doc, err := backup.Export(db, withMedia)
	if err != nil {
		audit.LogError("export", err)
		return fmt.Errorf("export failed: %w", err)
	}

	if err := backup.WriteFile(doc, output); err != nil {
		audit.LogError("export", err)
		return err
	}

	if err := db.TouchLastExport(doc.ExportDate); err != nil {
		util.WarnLog("Failed to record export timestamp: %v", err)
	}

	audit.LogExport(output, doc.Rows(), withMedia)
	util.SuccessLog("Exported %d patients, %d sessions to %s",
		len(doc.Patients), len(doc.Sessions), output)

	return nil
}
