// Package cmd contains the wallet app for the simple storage contract.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ardanlabs/dapp/foundation/nameservice"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	rpcURL      string
	catalogPath string
	deployment  string
	contractHex string
	variantName string
	chainID     uint64
	explorer    string
	assumeYes   bool
	verbose     bool
	timeout     time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "", "Name or address of the account to use.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&rpcURL, "rpc", "r", "", "Url of the chain node.")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "Path to a yaml deployment catalog.")
	rootCmd.PersistentFlags().StringVarP(&deployment, "deployment", "d", contract.DefaultDeployment.Name, "Name of the deployment to use.")
	rootCmd.PersistentFlags().StringVarP(&contractHex, "contract", "c", "", "Address of the contract.")
	rootCmd.PersistentFlags().StringVar(&variantName, "variant", "", "Contract variant: owned or basic.")
	rootCmd.PersistentFlags().Uint64Var(&chainID, "chain-id", 0, "Expected chain id.")
	rootCmd.PersistentFlags().StringVar(&explorer, "explorer", "", "Base url of the block explorer.")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log wallet and session events.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 2*time.Minute, "Time allowed for the command.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Simple storage contract wallet",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := accountName
	if name == "" {
		name = "private"
	}

	if !strings.HasSuffix(name, nameservice.KeyExtension) {
		name += nameservice.KeyExtension
	}

	return filepath.Join(accountPath, name)
}

// resolveDeployment starts from the selected deployment and applies the
// flags that were set explicitly.
func resolveDeployment() (contract.Deployment, error) {
	dep := contract.DefaultDeployment

	if catalogPath != "" {
		catalog, err := contract.LoadCatalog(catalogPath)
		if err != nil {
			return contract.Deployment{}, err
		}

		if dep, err = catalog.Lookup(deployment); err != nil {
			return contract.Deployment{}, err
		}
	}

	if contractHex != "" {
		dep.Address = contractHex
	}
	if variantName != "" {
		dep.Variant = contract.NormalizeVariant(variantName)
	}
	if rpcURL != "" {
		dep.RPC = rpcURL
	}
	if chainID != 0 {
		dep.ChainID = chainID
	}
	if explorer != "" {
		dep.Explorer = explorer
	}

	if err := dep.Validate(); err != nil {
		return contract.Deployment{}, fmt.Errorf("deployment: %w", err)
	}

	return dep, nil
}
