package blockchain

import (
	"crypto/sha256"

	"github.com/kilimba/utxochain/internal/codec"
)

// WalletPublicReprLength is the fixed size, in bytes, of a wallet's
// canonical public representation (DER PKCS#1 encoding of an RSA-4096 key).
const WalletPublicReprLength = 526

// SignatureInnerLength is the fixed size, in bytes, of the inner signature hash.
const SignatureInnerLength = 32

// TransactionSignature carries a signer's public representation alongside
// SHA256(RSA-PSS(transaction_id)) — the signature is pre-hashed to a fixed
// 32 bytes so the wire format never grows with key size.
type TransactionSignature struct {
	WalletPublicRepr [WalletPublicReprLength]byte
	Signature        [SignatureInnerLength]byte
}

// NewTransactionSignature constructs a signature from a public representation and an inner hash.
func NewTransactionSignature(publicRepr, signature []byte) (TransactionSignature, error) {
	var ts TransactionSignature
	if len(publicRepr) != WalletPublicReprLength {
		return ts, newInvalidArgument("wallet public representation must be %d bytes, got %d", WalletPublicReprLength, len(publicRepr))
	}
	if len(signature) != SignatureInnerLength {
		return ts, newInvalidArgument("signature must be %d bytes, got %d", SignatureInnerLength, len(signature))
	}
	copy(ts.WalletPublicRepr[:], publicRepr)
	copy(ts.Signature[:], signature)
	return ts, nil
}

// Address derives the signer's address from its public representation.
func (ts TransactionSignature) Address() Address {
	digest := sha256.Sum256(ts.WalletPublicRepr[:])
	var a Address
	copy(a[:], digest[:AddressLength])
	return a
}

// Bytes serializes the signature as wallet_public_repr(526) || signature(32).
func (ts TransactionSignature) Bytes() []byte {
	dst := make([]byte, 0, WalletPublicReprLength+SignatureInnerLength)
	dst = append(dst, ts.WalletPublicRepr[:]...)
	return append(dst, ts.Signature[:]...)
}

// SignatureFromBytes decodes a TransactionSignature, returning the remaining bytes.
func SignatureFromBytes(b []byte) ([]byte, TransactionSignature, error) {
	var ts TransactionSignature

	b, repr, err := codec.ReadRaw(b, WalletPublicReprLength)
	if err != nil {
		return nil, ts, wrapInvalidEncoding(err, "signature public representation")
	}
	copy(ts.WalletPublicRepr[:], repr)

	b, sig, err := codec.ReadRaw(b, SignatureInnerLength)
	if err != nil {
		return nil, ts, wrapInvalidEncoding(err, "signature inner hash")
	}
	copy(ts.Signature[:], sig)

	return b, ts, nil
}
