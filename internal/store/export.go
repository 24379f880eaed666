package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/kilimba/utxochain/internal/blockchain"
	"github.com/kilimba/utxochain/internal/chainerr"
)

// ExportChain writes the chain's human-readable projection to path as a
// single JSON array, genesis first.
//
// The source opens its export file in "w+" mode and reloads it with
// json.load immediately after — structurally broken against an empty or
// partially written file. This instead writes the whole array to a
// temporary file in the same directory and renames it into place, so a
// reader never observes a partial export (see DESIGN.md).
func ExportChain(path string, chain *blockchain.Chain) error {
	data, err := json.MarshalIndent(chain.Export(), "", "  ")
	if err != nil {
		return chainerr.Wrap(chainerr.InvalidArgument, err, "marshal chain export")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".chain-export-*.tmp")
	if err != nil {
		return chainerr.Wrap(chainerr.InvalidArgument, err, "create export temp file")
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return chainerr.Wrap(chainerr.InvalidArgument, err, "write chain export")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return chainerr.Wrap(chainerr.InvalidArgument, err, "close chain export temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return chainerr.Wrap(chainerr.InvalidArgument, err, "publish chain export")
	}
	return nil
}
