// Package nameservice reads a folder of ECDSA key files and creates a name
// service lookup for the accounts they control.
package nameservice

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyExtension is the file extension of a private key file.
const KeyExtension = ".ecdsa"

type entry struct {
	name string
	path string
}

// NameService maintains a map of accounts for name lookup.
type NameService struct {
	accounts map[common.Address]entry
}

// New constructs a name service with accounts from the key folder. A missing
// folder yields an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[common.Address]entry),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != KeyExtension {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return fmt.Errorf("loading %s: %w", fileName, err)
		}

		address := crypto.PubkeyToAddress(privateKey.PublicKey)
		ns.accounts[address] = entry{
			name: strings.TrimSuffix(filepath.Base(fileName), KeyExtension),
			path: fileName,
		}

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ns, nil
		}
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account, or the hex address
// when the account is unknown.
func (ns *NameService) Lookup(account common.Address) string {
	e, exists := ns.accounts[account]
	if !exists {
		return account.Hex()
	}
	return e.name
}

// Label returns the address followed by its name when one is known.
func (ns *NameService) Label(account common.Address) string {
	e, exists := ns.accounts[account]
	if !exists {
		return account.Hex()
	}
	return fmt.Sprintf("%s (%s)", account.Hex(), e.name)
}

// KeyPath returns the key file for the account.
func (ns *NameService) KeyPath(account common.Address) (string, bool) {
	e, exists := ns.accounts[account]
	return e.path, exists
}

// Find returns the account registered under the name.
func (ns *NameService) Find(name string) (common.Address, bool) {
	name = strings.TrimSuffix(name, KeyExtension)
	for account, e := range ns.accounts {
		if e.name == name {
			return account, true
		}
	}
	return common.Address{}, false
}

// Accounts returns the known accounts in address order.
func (ns *NameService) Accounts() []common.Address {
	accounts := make([]common.Address, 0, len(ns.accounts))
	for account := range ns.accounts {
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
	})

	return accounts
}

// Copy returns a copy of the map of names and accounts.
func (ns *NameService) Copy() map[common.Address]string {
	cpy := make(map[common.Address]string, len(ns.accounts))
	for account, e := range ns.accounts {
		cpy[account] = e.name
	}
	return cpy
}
