package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franz/osteo-vault/internal/store"
	"github.com/franz/osteo-vault/internal/util"
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Inspect patient records",
}

var patientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients ordered by name",
	RunE:  runPatientsList,
}

var patientsShowCmd = &cobra.Command{
	Use:   "show <patient-id>",
	Short: "Show one patient with their session history",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatientsShow,
}

func init() {
	patientsListCmd.Flags().String("gender", "", "filter by gender (M or F)")
	patientsListCmd.Flags().Bool("desc", false, "reverse the name ordering")
	patientsCmd.AddCommand(patientsListCmd)
	patientsCmd.AddCommand(patientsShowCmd)
	rootCmd.AddCommand(patientsCmd)
}

func runPatientsList(cmd *cobra.Command, args []string) error {
	gender, _ := cmd.Flags().GetString("gender")
	desc, _ := cmd.Flags().GetBool("desc")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	patients, err := db.ListPatients(store.ListPatientsOptions{
		Gender:     gender,
		Locale:     util.GetLocale(),
		Descending: desc,
	})
	if err != nil {
		return err
	}

	if len(patients) == 0 {
		fmt.Println("No patients.")
		return nil
	}

	for _, p := range patients {
		photo := ""
		if p.PhotoID != 0 {
			photo = fmt.Sprintf("  photo:%d", p.PhotoID)
		}
		fmt.Printf("%4d  %-20s %-15s %s  %s%s\n",
			p.ID, p.LastName, p.FirstName, p.Gender, p.BirthDate, photo)
	}

	return nil
}

func runPatientsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid patient id %q", args[0])
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := db.GetPatient(id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("patient %d: %w", id, util.ErrNotFound)
	}

	fmt.Printf("%s %s (%s), born %s\n", p.FirstName, p.LastName, p.Gender, p.BirthDate)
	if p.Phone != "" {
		fmt.Printf("  phone:   %s\n", p.Phone)
	}
	if p.Email != "" {
		fmt.Printf("  email:   %s\n", p.Email)
	}
	if p.MedicalHistory != "" {
		fmt.Printf("  medical: %s\n", p.MedicalHistory)
	}
	if p.SurgicalHistory != "" {
		fmt.Printf("  surgical: %s\n", p.SurgicalHistory)
	}
	if p.TraumaHistory != "" {
		fmt.Printf("  trauma:  %s\n", p.TraumaHistory)
	}

	sessions, err := db.ListSessionsForPatient(id, true)
	if err != nil {
		return err
	}

	fmt.Printf("\nSessions (%d):\n", len(sessions))
	for _, sess := range sessions {
		fmt.Printf("  %s  %s\n", sess.Date, sess.Motive)
	}

	return nil
}
