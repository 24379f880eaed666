package blockchain

import "encoding/hex"

// AddressLength is the fixed size, in bytes, of a wallet address.
const AddressLength = 8

// Address identifies a wallet: the first AddressLength bytes of
// SHA-256(wallet public representation).
type Address [AddressLength]byte

// String returns the lowercase hex representation of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// AddressFromHex parses a 16-character hex string into an Address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, newInvalidArgument("address %q is not valid hex: %v", s, err)
	}
	if len(b) != AddressLength {
		return a, newInvalidArgument("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}
