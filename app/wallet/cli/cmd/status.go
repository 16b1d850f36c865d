package cmd

import (
	"context"
	"log"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Connect and show the session",
	Run:   statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) {
	err := withSession(cmd, func(ctx context.Context, ctrl *session.Controller, term *terminal) error {
		term.printBinding()
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}
