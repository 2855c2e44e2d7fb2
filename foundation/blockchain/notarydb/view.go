package notarydb

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// View is a snapshot of the index. It implements the crosschain
// NotarizationIndex interface.
type View struct {
	snap *leveldb.Snapshot
}

// NotarizationsInBlock returns the notarizations carried by the block in
// the order they were recorded.
func (v *View) NotarizationsInBlock(blockHash common.Hash) ([]crosschain.Notarization, error) {
	data, err := v.snap.Get(blockKey(blockHash), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, fmt.Errorf("%w: block[%s]", crosschain.ErrNotarizationNotFound, blockHash.Hex())
		}
		return nil, fmt.Errorf("reading notarizations of block %s: %w", blockHash.Hex(), err)
	}

	var list []crosschain.Notarization
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, fmt.Errorf("decoding notarizations of block %s: %w", blockHash.Hex(), err)
	}

	return list, nil
}

// CheckpointForHeight returns the most recent checkpoint covering the
// height along with its index in the sequence.
func (v *View) CheckpointForHeight(height uint64) (crosschain.Checkpoint, int, error) {
	iter := v.snap.NewIterator(util.BytesPrefix(prefixCheckpoint), nil)
	defer iter.Release()

	for ok := iter.Last(); ok; ok = iter.Prev() {
		var cp crosschain.Checkpoint
		if err := rlp.DecodeBytes(iter.Value(), &cp); err != nil {
			return crosschain.Checkpoint{}, 0, fmt.Errorf("decoding checkpoint: %w", err)
		}

		if cp.Covers(height) {
			idx := binary.BigEndian.Uint64(iter.Key()[len(prefixCheckpoint):])
			return cp, int(idx), nil
		}
	}

	if err := iter.Error(); err != nil {
		return crosschain.Checkpoint{}, 0, fmt.Errorf("scanning checkpoints: %w", err)
	}

	return crosschain.Checkpoint{}, 0, fmt.Errorf("%w: height[%d]", crosschain.ErrNotarizationNotFound, height)
}

// CheckpointAt returns the checkpoint at the index in the sequence.
func (v *View) CheckpointAt(index int) (crosschain.Checkpoint, error) {
	if index < 0 {
		return crosschain.Checkpoint{}, fmt.Errorf("%w: index[%d]", crosschain.ErrNotarizationNotFound, index)
	}

	return readCheckpoint(v.snap, uint64(index))
}

// BackNotarization returns the back notarization acknowledging the
// reference chain transaction.
func (v *View) BackNotarization(refTxid common.Hash) (crosschain.Notarization, error) {
	data, err := v.snap.Get(backKey(refTxid), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return crosschain.Notarization{}, fmt.Errorf("%w: ref txid[%s]", crosschain.ErrBackNotarizationNotFound, refTxid.Hex())
		}
		return crosschain.Notarization{}, fmt.Errorf("reading back notarization %s: %w", refTxid.Hex(), err)
	}

	var nota crosschain.Notarization
	if err := rlp.DecodeBytes(data, &nota); err != nil {
		return crosschain.Notarization{}, fmt.Errorf("decoding back notarization %s: %w", refTxid.Hex(), err)
	}

	return nota, nil
}

// Checkpoints returns every checkpoint in the sequence in order.
func (v *View) Checkpoints() ([]crosschain.Checkpoint, error) {
	iter := v.snap.NewIterator(util.BytesPrefix(prefixCheckpoint), nil)
	defer iter.Release()

	var cps []crosschain.Checkpoint
	for iter.Next() {
		var cp crosschain.Checkpoint
		if err := rlp.DecodeBytes(iter.Value(), &cp); err != nil {
			return nil, fmt.Errorf("decoding checkpoint: %w", err)
		}
		cps = append(cps, cp)
	}

	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scanning checkpoints: %w", err)
	}

	return cps, nil
}

// Release ends the view.
func (v *View) Release() {
	v.snap.Release()
}
