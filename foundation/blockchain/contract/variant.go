package contract

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Set of known contract variants.
const (
	VariantOwned = "owned"
	VariantBasic = "basic"
)

// Capabilities describes which optional parts of the contract interface are
// available. It is selected once, at configuration time.
type Capabilities struct {
	HasOwner    bool `json:"has_owner" yaml:"has_owner"`
	HasTransfer bool `json:"has_transfer" yaml:"has_transfer"`
	HasEvents   bool `json:"has_events" yaml:"has_events"`
}

// Variant ties a contract interface to its capability set.
type Variant struct {
	Name string
	Caps Capabilities
	ABI  abi.ABI
}

var variants = map[string]struct {
	abi  string
	caps Capabilities
}{
	VariantOwned: {
		abi:  ownedABI,
		caps: Capabilities{HasOwner: true, HasTransfer: true, HasEvents: true},
	},
	VariantBasic: {
		abi:  basicABI,
		caps: Capabilities{},
	},
}

// NormalizeVariant returns the canonical form of a variant name.
func NormalizeVariant(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// LookupVariant parses the interface for the named variant.
func LookupVariant(name string) (Variant, error) {
	name = NormalizeVariant(name)

	v, exists := variants[name]
	if !exists {
		return Variant{}, fmt.Errorf("unknown contract variant %q", name)
	}

	parsed, err := abi.JSON(strings.NewReader(v.abi))
	if err != nil {
		return Variant{}, fmt.Errorf("parsing %s abi: %w", name, err)
	}

	return Variant{Name: name, Caps: v.caps, ABI: parsed}, nil
}

// Variants returns the names of the supported variants.
func Variants() []string {
	return []string{VariantOwned, VariantBasic}
}
