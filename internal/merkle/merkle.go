// Package merkle computes the hash-tree root over an ordered sequence of
// leaves, used by the chain engine to summarize a block's transaction IDs.
//
// Odd levels are padded with an empty byte string rather than a duplicate
// of the last node. This differs from the more common Bitcoin-style
// duplicate-last convention; it is kept for byte compatibility with the
// protocol this engine implements (see DESIGN.md).
package merkle

import "crypto/sha256"

// Root computes the merkle root of leaves, which are assumed to already be
// digests (the engine always calls this with transaction IDs). An empty
// input returns nil; the engine never calls Root with zero leaves since
// every block carries at least a coinbase transaction.
func Root(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return nil
	}

	branches := make([][]byte, len(leaves))
	copy(branches, leaves)

	for len(branches) > 1 {
		if len(branches)%2 != 0 {
			branches = append(branches, []byte{})
		}

		next := make([][]byte, len(branches)/2)
		for i := 0; i < len(branches); i += 2 {
			h := sha256.Sum256(append(append([]byte{}, branches[i]...), branches[i+1]...))
			next[i/2] = h[:]
		}
		branches = next
	}

	return branches[0]
}
