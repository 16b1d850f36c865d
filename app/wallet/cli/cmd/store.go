package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/spf13/cobra"
)

var storeCmd = &cobra.Command{
	Use:   "store <value>",
	Short: "Store a new value in the contract",
	Args:  cobra.ExactArgs(1),
	Run:   storeRun,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}

func storeRun(cmd *cobra.Command, args []string) {
	err := withSession(cmd, func(ctx context.Context, ctrl *session.Controller, term *terminal) error {
		hash, err := ctrl.SubmitStore(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "tx: %s\n", hash.Hex())
		term.printBinding()

		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}
