// Package starknet reads the score contract over Starknet JSON-RPC and
// formats addresses and calldata the way wallets expect.
package starknet

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAddress is returned for strings that are not a valid field element.
var ErrInvalidAddress = errors.New("invalid starknet address")

// FieldPrime is the Starknet field modulus, 2^251 + 17*2^192 + 1.
var FieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	p.Add(p, new(big.Int).Lsh(big.NewInt(17), 192))
	return p.Add(p, big.NewInt(1))
}()

// Address is a contract or account address. The zero value is address 0x0.
type Address struct {
	hex string // lowercase, no prefix, no leading zeros; "" means zero
}

// ParseAddress parses a 0x-prefixed hex string of 1 to 64 digits whose value
// is below the field prime.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) < 3 || (s[:2] != "0x" && s[:2] != "0X") {
		return Address{}, fmt.Errorf("%w: %q needs a 0x prefix", ErrInvalidAddress, s)
	}
	digits := s[2:]
	if len(digits) > 64 {
		return Address{}, fmt.Errorf("%w: %q is longer than 64 hex digits", ErrInvalidAddress, s)
	}
	for i := 0; i < len(digits); i++ {
		if !isHex(digits[i]) {
			return Address{}, fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, s)
		}
	}
	v, _ := new(big.Int).SetString(digits, 16)
	if v.Cmp(FieldPrime) >= 0 {
		return Address{}, fmt.Errorf("%w: %q is outside the field", ErrInvalidAddress, s)
	}
	return AddressFromBig(v), nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// MustParseAddress is ParseAddress for constants; it panics on error.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBig wraps a non-negative field element.
func AddressFromBig(v *big.Int) Address {
	if v.Sign() == 0 {
		return Address{}
	}
	return Address{hex: v.Text(16)}
}

// String returns lowercase hex with a 0x prefix and no leading zeros.
func (a Address) String() string {
	if a.hex == "" {
		return "0x0"
	}
	return "0x" + a.hex
}

// Short abbreviates the address for narrow displays, e.g. 0x1234...abcd.
func (a Address) Short() string {
	s := a.String()
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// Big returns the address as an integer.
func (a Address) Big() *big.Int {
	v, ok := new(big.Int).SetString(a.hex, 16)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Decimal returns the base-10 form used in calldata.
func (a Address) Decimal() string {
	return a.Big().Text(10)
}

// IsZero reports whether a is 0x0.
func (a Address) IsZero() bool {
	return a.hex == ""
}
