package contract

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// Deployment describes a contract deployed on a specific chain.
type Deployment struct {
	Name     string `yaml:"-"`
	Address  string `yaml:"address"`
	Variant  string `yaml:"variant"`
	ChainID  uint64 `yaml:"chain_id"`
	RPC      string `yaml:"rpc"`
	Explorer string `yaml:"explorer"`
}

// DefaultDeployment is the storage contract on Giwa Sepolia.
var DefaultDeployment = Deployment{
	Name:     "giwa-sepolia",
	Address:  "0x30bDe02387EA7967b8C75a5189a1b2A61F8F4e22",
	Variant:  VariantOwned,
	ChainID:  91342,
	RPC:      "https://sepolia-rpc.giwa.io",
	Explorer: "https://sepolia-explorer.giwa.io",
}

// Validate checks the deployment can be bound to.
func (d Deployment) Validate() error {
	if !common.IsHexAddress(d.Address) {
		return fmt.Errorf("deployment %q: invalid address %q", d.Name, d.Address)
	}

	if _, exists := variants[NormalizeVariant(d.Variant)]; !exists {
		return fmt.Errorf("deployment %q: unknown variant %q", d.Name, d.Variant)
	}

	if d.ChainID == 0 {
		return fmt.Errorf("deployment %q: chain id is required", d.Name)
	}

	return nil
}

// ContractAddress returns the address as a typed value.
func (d Deployment) ContractAddress() common.Address {
	return common.HexToAddress(d.Address)
}

// =============================================================================

// catalog is the on disk format of a deployments file.
//
//	deployments:
//	  giwa-sepolia:
//	    address: "0x30bDe02387EA7967b8C75a5189a1b2A61F8F4e22"
//	    variant: owned
//	    chain_id: 91342
//	    rpc: https://sepolia-rpc.giwa.io
//	    explorer: https://sepolia-explorer.giwa.io
type catalog struct {
	Deployments map[string]Deployment `yaml:"deployments"`
}

// Catalog holds a set of named deployments.
type Catalog struct {
	deployments map[string]Deployment
}

// LoadCatalog reads and validates a deployments file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deployments: %w", err)
	}

	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a deployments document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding deployments: %w", err)
	}

	if len(doc.Deployments) == 0 {
		return nil, errors.New("no deployments defined")
	}

	cat := Catalog{
		deployments: make(map[string]Deployment, len(doc.Deployments)),
	}

	for name, d := range doc.Deployments {
		d.Name = name
		d.Variant = NormalizeVariant(d.Variant)
		if err := d.Validate(); err != nil {
			return nil, err
		}
		cat.deployments[name] = d
	}

	return &cat, nil
}

// Lookup returns the named deployment.
func (c *Catalog) Lookup(name string) (Deployment, error) {
	d, exists := c.deployments[name]
	if !exists {
		return Deployment{}, fmt.Errorf("deployment %q not found", name)
	}
	return d, nil
}

// Names returns the sorted deployment names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.deployments))
	for name := range c.deployments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
