package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/osteo-vault/internal/report"
	"github.com/franz/osteo-vault/internal/store"
	"github.com/franz/osteo-vault/internal/util"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "osteo",
		Short: "Local-first patient record manager for solo practitioners",
		Long: `osteo is a local-first patient-record manager. All records, session
notes and photos live in a single SQLite database on this device; there
is no server and no synchronization. The CLI is the maintenance shell:
backup export/import, database reset, and photo ingest.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/osteo.yaml)")
	rootCmd.PersistentFlags().String("db", "osteo.db", "patient database file")
	rootCmd.PersistentFlags().String("locale", "", "BCP 47 tag for name ordering (e.g. fr, de)")
	rootCmd.PersistentFlags().String("audit-dir", "", "directory for JSONL audit logs (disabled if empty)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("locale", rootCmd.PersistentFlags().Lookup("locale"))
	viper.BindPFlag("audit-dir", rootCmd.PersistentFlags().Lookup("audit-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("osteo")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OSTEO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

// openStore applies the log-level flags and opens the database
func openStore() (*store.Store, error) {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	dbPath := viper.GetString("db")
	util.DebugLog("Opening database: %s", dbPath)

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openAuditLogger returns an audit logger when audit-dir is set,
// or a nil logger (which ignores events) otherwise.
func openAuditLogger() *report.EventLogger {
	dir := viper.GetString("audit-dir")
	if dir == "" {
		return nil
	}

	logger, err := report.NewEventLogger(dir, report.LevelInfo)
	if err != nil {
		util.WarnLog("Audit log disabled: %v", err)
		return nil
	}
	return logger
}

// confirm gates destructive operations. force skips the prompt; a
// non-interactive session without force refuses rather than guessing.
func confirm(prompt string, force bool) bool {
	if force {
		return true
	}

	if !util.IsTerminal(os.Stdin.Fd()) {
		util.ErrorLog("Refusing destructive operation without --force in a non-interactive session")
		return false
	}

	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
