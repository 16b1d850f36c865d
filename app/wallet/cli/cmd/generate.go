package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	keystoreDir string
	passphrase  string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	Run:   generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&keystoreDir, "keystore", "k", "", "Also export the key to an encrypted keystore in this directory.")
	generateCmd.Flags().StringVar(&passphrase, "passphrase", os.Getenv("WALLET_PASSPHRASE"), "Passphrase for the keystore export.")
}

func generateRun(cmd *cobra.Command, args []string) {
	if err := os.MkdirAll(accountPath, 0700); err != nil {
		log.Fatal(err)
	}

	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		log.Fatalf("%s already exists", path)
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", crypto.PubkeyToAddress(privateKey.PublicKey).Hex(), path)

	if keystoreDir == "" {
		return
	}

	if passphrase == "" {
		log.Fatal("a passphrase is required for the keystore export")
	}

	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	acc, err := ks.ImportECDSA(privateKey, passphrase)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "keystore: %s\n", acc.URL.Path)
}
