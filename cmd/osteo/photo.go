package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/osteo-vault/internal/imaging"
	"github.com/franz/osteo-vault/internal/media"
	"github.com/franz/osteo-vault/internal/store"
	"github.com/franz/osteo-vault/internal/util"
)

var photoCmd = &cobra.Command{
	Use:   "photo",
	Short: "Manage patient photos",
}

var photoAddCmd = &cobra.Command{
	Use:   "add <patient-id> <image-file>",
	Short: "Ingest an image as a patient's profile photo",
	Long: `Process an image into the stored HD and thumbnail variants and link
it as the patient's profile photo. The previous photo, if any, stays in
the media table until removed.`,
	Args: cobra.ExactArgs(2),
	RunE: runPhotoAdd,
}

var photoExportCmd = &cobra.Command{
	Use:   "export <media-id> <directory>",
	Short: "Write both stored variants of a media asset to files",
	Args:  cobra.ExactArgs(2),
	RunE:  runPhotoExport,
}

func init() {
	photoAddCmd.Flags().String("name", "", "logical name for the asset (default: file basename)")
	photoCmd.AddCommand(photoAddCmd)
	photoCmd.AddCommand(photoExportCmd)
	rootCmd.AddCommand(photoCmd)
}

func runPhotoAdd(cmd *cobra.Command, args []string) error {
	patientID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid patient id %q", args[0])
	}
	path := args[1]

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	patient, err := db.GetPatient(patientID)
	if err != nil {
		return err
	}
	if patient == nil {
		return fmt.Errorf("patient %d: %w", patientID, util.ErrNotFound)
	}

	audit := openAuditLogger()
	defer audit.Close()

	pipeline := imaging.New(util.GetWorkers())
	defer pipeline.Close()

	mgr := media.New(media.Config{
		Store:    db,
		Pipeline: pipeline,
		Logger:   audit,
	})

	mediaID, err := mgr.Store(context.Background(), data,
		media.Owner{PatientID: patientID}, name)
	if err != nil {
		return err
	}

	if err := db.UpdatePatient(patientID, store.PatientPatch{PhotoID: &mediaID}); err != nil {
		return err
	}

	util.SuccessLog("Stored photo %d for patient %s %s",
		mediaID, patient.FirstName, patient.LastName)

	return nil
}

func runPhotoExport(cmd *cobra.Command, args []string) error {
	mediaID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid media id %q", args[0])
	}
	dir := args[1]

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	mgr := media.New(media.Config{Store: db})

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	for _, variant := range []media.Variant{media.VariantHD, media.VariantThumb} {
		handle, err := mgr.Resolve(mediaID, variant)
		if err != nil {
			return err
		}
		if handle == nil {
			return fmt.Errorf("media %d (%s): %w", mediaID, variant, util.ErrNotFound)
		}

		out := filepath.Join(dir, fmt.Sprintf("media_%d_%s.jpg", mediaID, variant))
		writeErr := os.WriteFile(out, handle.Bytes(), 0644)
		mgr.Release(handle)
		if writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", out, writeErr)
		}

		util.InfoLog("Wrote %s", out)
	}

	return nil
}
