package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ardanlabs/dapp/foundation/blockchain/wallet"
	"github.com/ardanlabs/dapp/foundation/logger"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
)

// withSession builds a connected session for the command and runs fn with
// it. Everything is torn down when fn returns.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, ctrl *session.Controller, term *terminal) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	dep, err := resolveDeployment()
	if err != nil {
		return err
	}

	var ev func(v string, args ...any)
	if verbose {
		log, err := logger.New("WALLET")
		if err != nil {
			return err
		}
		defer log.Sync()

		ev = func(v string, args ...any) {
			log.Infow(fmt.Sprintf(v, args...))
		}
	}

	ns, err := nameservice.New(accountPath)
	if err != nil {
		return fmt.Errorf("loading accounts: %w", err)
	}

	client, err := ethclient.DialContext(ctx, dep.RPC)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", dep.RPC, err)
	}
	defer client.Close()

	term := newTerminal(cmd.OutOrStdout(), cmd.InOrStdin(), assumeYes)

	w, err := wallet.New(wallet.Config{
		Chain:   client,
		Names:   ns,
		Account: accountName,
		Approve: func(tx *types.Transaction) bool {
			return term.Confirm(ctx, fmt.Sprintf("Sign transaction to %s with nonce %d?", tx.To().Hex(), tx.Nonce()))
		},
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer w.Shutdown()

	variant, err := contract.LookupVariant(dep.Variant)
	if err != nil {
		return err
	}

	ctrl, err := session.New(session.Config{
		Provider: w,
		Binder: func(signer *bind.TransactOpts) (session.Gateway, error) {
			c, err := contract.New(contract.Config{
				Address: dep.ContractAddress(),
				Variant: variant,
				Backend: client,
				Signer:  signer,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		View:            term,
		Capabilities:    variant.Caps,
		ContractAddress: dep.ContractAddress(),
		ExpectedChainID: dep.ChainID,
		NetworkName:     dep.Name,
		Explorer:        dep.Explorer,
		EvHandler:       ev,
	})
	if err != nil {
		return err
	}
	defer ctrl.Reset()

	if err := ctrl.Initialize(ctx); err != nil {
		return err
	}

	if ctrl.Snapshot().State != session.StateConnected {
		if _, err := w.Accounts(ctx); err != nil {
			return err
		}
		return errors.New("no account available, generate one first")
	}

	return fn(ctx, ctrl, term)
}
