package crosschain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// NextBackNotarization runs on an asset chain and walks forward from the
// back notarization of the reference chain anchor to the back notarization
// of the checkpoint that follows it.
func (p *Prover) NextBackNotarization(refTxid common.Hash) (Notarization, error) {
	_, index, release, err := p.views()
	if err != nil {
		return Notarization{}, err
	}
	defer release()

	bn, err := index.BackNotarization(refTxid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notarization{}, fmt.Errorf("%w: ref txid[%s]", ErrBackNotarizationNotFound, refTxid.Hex())
		}
		return Notarization{}, fmt.Errorf("lookup back notarization: %w", err)
	}

	_, idx, err := index.CheckpointForHeight(bn.Data.Height)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notarization{}, fmt.Errorf("%w: height[%d]", ErrNotarizationNotFound, bn.Data.Height)
		}
		return Notarization{}, fmt.Errorf("lookup checkpoint: %w", err)
	}

	next, err := index.CheckpointAt(idx + 1)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notarization{}, fmt.Errorf("%w: after checkpoint[%d]", ErrNoFurtherNotarization, idx)
		}
		return Notarization{}, fmt.Errorf("lookup checkpoint at %d: %w", idx+1, err)
	}

	nextBN, err := index.BackNotarization(next.DestTxid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Notarization{}, fmt.Errorf("%w: ref txid[%s]", ErrBackNotarizationNotFound, next.DestTxid.Hex())
		}
		return Notarization{}, fmt.Errorf("lookup back notarization: %w", err)
	}

	p.evHandler("crosschain: NextBackNotarization: ref[%s] checkpoint[%d] next[%s] height[%d]", refTxid.Hex(), idx+1, nextBN.Txid.Hex(), nextBN.Data.Height)

	return nextBN, nil
}
