package starknet

import (
	"math/big"

	"golang.org/x/crypto/sha3"
)

var mask250 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 250), big.NewInt(1))

// Selector returns the entry point selector for a function name: keccak-256
// of the name truncated to 250 bits.
func Selector(name string) *big.Int {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	v := new(big.Int).SetBytes(h.Sum(nil))
	return v.And(v, mask250)
}

// SelectorHex returns Selector(name) as 0x-prefixed lowercase hex.
func SelectorHex(name string) string {
	return "0x" + Selector(name).Text(16)
}
