package cmd

import (
	"context"
	"log"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/spf13/cobra"
)

var valueCmd = &cobra.Command{
	Use:   "value",
	Short: "Read the stored value",
	Run: func(cmd *cobra.Command, args []string) {
		read(cmd, func(ctx context.Context, ctrl *session.Controller) error {
			_, err := ctrl.ReadValue(ctx)
			return err
		})
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Read the contract owner",
	Run: func(cmd *cobra.Command, args []string) {
		read(cmd, func(ctx context.Context, ctrl *session.Controller) error {
			_, err := ctrl.ReadOwner(ctx)
			return err
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Read the stored value and the owner",
	Run: func(cmd *cobra.Command, args []string) {
		read(cmd, func(ctx context.Context, ctrl *session.Controller) error {
			_, err := ctrl.ContractInfo(ctx)
			return err
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List the values stored in the last 100 blocks",
	Run: func(cmd *cobra.Command, args []string) {
		read(cmd, func(ctx context.Context, ctrl *session.Controller) error {
			_, err := ctrl.ListRecentEvents(ctx)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(valueCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(eventsCmd)
}

// read runs a single controller call. The controller has already shown the
// outcome so only the exit status is left to decide.
func read(cmd *cobra.Command, fn func(ctx context.Context, ctrl *session.Controller) error) {
	err := withSession(cmd, func(ctx context.Context, ctrl *session.Controller, term *terminal) error {
		return fn(ctx, ctrl)
	})
	if err != nil {
		log.Fatal(err)
	}
}
