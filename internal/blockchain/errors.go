package blockchain

import "github.com/kilimba/utxochain/internal/chainerr"

func newInvalidArgument(format string, args ...any) error {
	return chainerr.New(chainerr.InvalidArgument, format, args...)
}

func newInvalidEncoding(format string, args ...any) error {
	return chainerr.New(chainerr.InvalidEncoding, format, args...)
}

func wrapInvalidEncoding(cause error, format string, args ...any) error {
	return chainerr.Wrap(chainerr.InvalidEncoding, cause, format, args...)
}

func newInvalidChain(format string, args ...any) error {
	return chainerr.New(chainerr.InvalidChain, format, args...)
}
