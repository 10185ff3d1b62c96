package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage export encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the archive key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SetupEncryption", args)
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}
		if err := a.SetupEncryption(pass); err != nil {
			a.Fail()
			return err
		}
		fmt.Println("Keys created")
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Write the local history to an archive (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plaintext, _ := cmd.Flags().GetBool("plaintext")

		a, err := newApp(cmd, "Export", args)
		if err != nil {
			return err
		}
		defer a.Close()

		var w io.Writer = os.Stdout
		if len(args) > 0 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating archive: %w", err)
			}
			defer f.Close()
			w = f
		}

		n, err := a.Export(cmd.Context(), w, plaintext)
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d day(s)\n", n)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge an archive into the local history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plaintext, _ := cmd.Flags().GetBool("plaintext")

		a, err := newApp(cmd, "Import", args)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer f.Close()

		pass := ""
		if !plaintext {
			if pass, err = readPassphrase("Passphrase: "); err != nil {
				return err
			}
		}
		n, err := a.Import(cmd.Context(), f, pass)
		if err != nil {
			a.Fail()
			return err
		}
		fmt.Printf("Imported %d day(s)\n", n)
		return nil
	},
}

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the device database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the database location",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DBStatus", args)
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Database: %s\n", a.DBPath())
		fmt.Printf("Keys:     %v\n", a.EncryptionConfigured())
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup FILE",
	Short: "Snapshot the device database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "BackupDB", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.BackupDB(args[0]); err != nil {
			a.Fail()
			return err
		}
		fmt.Printf("Database copied to %s\n", args[0])
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysInitCmd)
	exportCmd.Flags().Bool("plaintext", false, "Write an unencrypted archive")
	importCmd.Flags().Bool("plaintext", false, "Read an unencrypted archive")
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbBackupCmd)

	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(dbCmd)
}
