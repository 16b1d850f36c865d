package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var listAccounts bool

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print account for the specific wallet",
	Run:   accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.Flags().BoolVarP(&listAccounts, "list", "l", false, "List every account in the account path.")
}

func accountRun(cmd *cobra.Command, args []string) {
	if listAccounts {
		ns, err := nameservice.New(accountPath)
		if err != nil {
			log.Fatal(err)
		}

		for _, account := range ns.Accounts() {
			fmt.Fprintln(cmd.OutOrStdout(), ns.Label(account))
		}
		return
	}

	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
}
