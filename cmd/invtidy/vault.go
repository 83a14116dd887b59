package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invtidy/pkg/vault"
)

var vaultPasswordFile string

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Encrypt and decrypt overlay values",
	Long: `Produce vault-encrypted values for host_vars and group_vars documents.
Encrypted values carry the ` + vault.Prefix + ` prefix; when a vault password is
configured, analyze decrypts them before comparing variables.`,
}

var vaultEncryptCmd = &cobra.Command{
	Use:   "encrypt <value>",
	Short: "Encrypt a value for use in an overlay document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := vaultPassword()
		if err != nil {
			return err
		}
		enc, err := vault.Encrypt(args[0], password)
		if err != nil {
			return err
		}
		fmt.Println(enc)
		return nil
	},
}

var vaultDecryptCmd = &cobra.Command{
	Use:   "decrypt <value>",
	Short: "Decrypt a vault-encrypted value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := vaultPassword()
		if err != nil {
			return err
		}
		plain, err := vault.Decrypt(args[0], password)
		if err != nil {
			return err
		}
		fmt.Println(plain)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultEncryptCmd)
	vaultCmd.AddCommand(vaultDecryptCmd)
	vaultCmd.PersistentFlags().StringVar(&vaultPasswordFile, "vault-password-file", "", "file holding the vault password")
}

func vaultPassword() (string, error) {
	if vaultPasswordFile != "" {
		return vault.LoadPassword(vaultPasswordFile)
	}
	if env := os.Getenv("INVTIDY_VAULT_PASSWORD"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("no vault password: use --vault-password-file or INVTIDY_VAULT_PASSWORD")
}
