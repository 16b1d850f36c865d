package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/ardanlabs/dapp/foundation/blockchain/contract"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ABI prints the method selectors and event topics of a contract variant.
func ABI(w io.Writer, args []string) error {
	if len(args) != 3 {
		return errors.New("abi requires a variant name")
	}

	variant, err := contract.LookupVariant(args[2])
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "variant: %s  owner:%t transfer:%t events:%t\n",
		variant.Name, variant.Caps.HasOwner, variant.Caps.HasTransfer, variant.Caps.HasEvents)

	names := make([]string, 0, len(variant.ABI.Methods))
	for name := range variant.ABI.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := variant.ABI.Methods[name]
		fmt.Fprintf(w, "method %s  %s\n", hexutil.Encode(m.ID), m.Sig)
	}

	for _, e := range variant.ABI.Events {
		fmt.Fprintf(w, "event  %s  %s\n", e.ID.Hex(), e.Sig)
	}

	return nil
}
