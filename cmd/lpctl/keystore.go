package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	solanapkg "lpcontrol/pkg/solana"
)

func keystoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keystore",
		Short: "Manage the encrypted signer keystore",
	}

	open := func(cmd *cobra.Command) (*solanapkg.KeyManager, string, error) {
		s, err := loadSettings(cmd)
		if err != nil {
			return nil, "", err
		}
		if s.KeystorePassword == "" {
			return nil, "", fmt.Errorf("keystore password is required")
		}
		return solanapkg.NewKeyManager(s.KeystoreDir), s.KeystorePassword, nil
	}

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate and store a new key pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			km, password, err := open(cmd)
			if err != nil {
				return err
			}
			label, _ := cmd.Flags().GetString("label")
			account, err := km.GenerateKeyPair()
			if err != nil {
				return err
			}
			address, err := km.Save(account, password, label)
			if err != nil {
				return err
			}
			logrus.WithField("address", address).Info("Key stored")
			fmt.Println(address)
			return nil
		},
	}
	newCmd.Flags().String("label", "", "label of the key")

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import a base58 secret key read from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			km, password, err := open(cmd)
			if err != nil {
				return err
			}
			label, _ := cmd.Flags().GetString("label")
			secret, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && secret == "" {
				return fmt.Errorf("read secret: %w", err)
			}
			address, err := km.ImportBase58(strings.TrimSpace(secret), password, label)
			if err != nil {
				return err
			}
			logrus.WithField("address", address).Info("Key imported")
			fmt.Println(address)
			return nil
		},
	}
	importCmd.Flags().String("label", "", "label of the key")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored addresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			entries, err := solanapkg.NewKeyManager(s.KeystoreDir).List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\n", e.Address, e.Label)
			}
			return nil
		},
	}

	cmd.AddCommand(newCmd, importCmd, listCmd)
	return cmd
}
