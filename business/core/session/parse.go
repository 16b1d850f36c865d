package session

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseValue converts user input into a value that can be stored: a base 10
// whole number between 0 and 2^256-1.
func ParseValue(input string) (*big.Int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrInvalidValue
	}

	value, ok := new(big.Int).SetString(input, 10)
	if !ok || value.Sign() < 0 || value.BitLen() > 256 {
		return nil, ErrInvalidValue
	}

	return value, nil
}

// ParseAddress converts user input into an account address. Mixed case input
// must carry a valid EIP-55 checksum.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, ErrInvalidAddress
	}

	addr := common.HexToAddress(input)

	hex := strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	if strings.ToLower(hex) != hex && strings.ToUpper(hex) != hex {
		if addr.Hex()[2:] != hex {
			return common.Address{}, ErrInvalidAddress
		}
	}

	return addr, nil
}
