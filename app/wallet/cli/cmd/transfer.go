package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/spf13/cobra"
)

var transferCmd = &cobra.Command{
	Use:   "transfer <address>",
	Short: "Transfer ownership of the contract",
	Args:  cobra.ExactArgs(1),
	Run:   transferRun,
}

func init() {
	rootCmd.AddCommand(transferCmd)
}

func transferRun(cmd *cobra.Command, args []string) {
	err := withSession(cmd, func(ctx context.Context, ctrl *session.Controller, term *terminal) error {
		hash, err := ctrl.SubmitTransferOwnership(ctx, args[0])
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
