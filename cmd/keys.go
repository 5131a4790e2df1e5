package cmd

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/visa-scheduler/internal/crypto"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate a CRED_ENC_KEY value (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export CRED_ENC_KEY=%s\n", base64.StdEncoding.EncodeToString(key))
			return nil
		},
	}
}

func newSealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seal",
		Short: "Encrypt the portal password read from stdin with CRED_ENC_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := os.Getenv("CRED_ENC_KEY")
			if key == "" {
				return fmt.Errorf("CRED_ENC_KEY is required (see: visasched keys)")
			}
			s, err := crypto.NewFromBase64(key)
			if err != nil {
				return err
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				return fmt.Errorf("empty password")
			}

			sealed, err := s.SealString(password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export VISA_USER_PASSWORD_SEALED=%s\n", sealed)
			return nil
		},
	}
}
