package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/sign"
)

var (
	genKeyName    string
	genKeyComment string
	genKeyEmail   string
	genKeyOutput  string
)

// createGenKeyCommand creates the gen-key subcommand, generating a
// fresh OpenPGP key for the certificate config key to point at.
func createGenKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen-key",
		Short: "Generate a new OpenPGP signing key",
		RunE:  executeGenKey,
	}
	cmd.Flags().StringVar(&genKeyName, "name", "p-vector", "Key holder name")
	cmd.Flags().StringVar(&genKeyComment, "comment", "", "Key comment")
	cmd.Flags().StringVar(&genKeyEmail, "email", "", "Key holder email")
	cmd.Flags().StringVarP(&genKeyOutput, "output", "o", "", "Write the armored private key here instead of stdout")
	return cmd
}

func executeGenKey(cmd *cobra.Command, args []string) error {
	key, err := sign.GenerateKey(genKeyName, genKeyComment, genKeyEmail)
	if err != nil {
		return fatal(err)
	}

	if genKeyOutput == "" {
		_, err = os.Stdout.Write(key)
		return err
	}
	if err := os.WriteFile(genKeyOutput, key, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", genKeyOutput, err)
	}
	fmt.Fprintf(os.Stderr, "Private key written to %s\n", genKeyOutput)
	return nil
}
