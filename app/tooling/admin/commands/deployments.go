// Package commands contains the functionality for the set of commands
// currently supported by the CLI tooling.
package commands

import (
	"fmt"
	"io"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
)

// Deployments prints every deployment in the catalog along with any
// validation problem. Without a catalog the built in deployment is shown.
func Deployments(w io.Writer, args []string) error {
	deployments := []contract.Deployment{contract.DefaultDeployment}

	if len(args) == 3 {
		catalog, err := contract.LoadCatalog(args[2])
		if err != nil {
			return err
		}

		deployments = deployments[:0]
		for _, name := range catalog.Names() {
			dep, err := catalog.Lookup(name)
			if err != nil {
				return err
			}
			deployments = append(deployments, dep)
		}
	}

	for _, dep := range deployments {
		status := "ok"
		if err := dep.Validate(); err != nil {
			status = err.Error()
		}

		fmt.Fprintf(w, "%-16s %s  %-6s chain:%-8d %s  [%s]\n", dep.Name, dep.Address, dep.Variant, dep.ChainID, dep.Explorer, status)
	}

	return nil
}
