package database

import (
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ethereum/go-ethereum/common"
)

// View is a point-in-time view of the chain. Blocks added after the view
// was captured are not visible, and any read after a reorg fails with
// crosschain.ErrStaleView. It implements the crosschain ChainView interface.
type View struct {
	db         *Database
	tip        uint64
	generation uint64
}

// TipHeight returns the height of the chain when the view was captured.
func (v *View) TipHeight() uint64 {
	return v.tip
}

// BlockByHeight returns the header of the block at the height.
func (v *View) BlockByHeight(height uint64) (crosschain.BlockHeader, error) {
	v.db.mu.RLock()
	defer v.db.mu.RUnlock()

	if err := v.checkStale(); err != nil {
		return crosschain.BlockHeader{}, err
	}

	if height == 0 || height > v.tip {
		return crosschain.BlockHeader{}, fmt.Errorf("%w: height[%d]", crosschain.ErrBlockNotFound, height)
	}

	return toHeader(v.db.blocks[height-1]), nil
}

// BlockByHash returns the header of the block with the hash.
func (v *View) BlockByHash(hash common.Hash) (crosschain.BlockHeader, error) {
	v.db.mu.RLock()
	defer v.db.mu.RUnlock()

	if err := v.checkStale(); err != nil {
		return crosschain.BlockHeader{}, err
	}

	num, exists := v.db.byHash[hash]
	if !exists || num > v.tip {
		return crosschain.BlockHeader{}, fmt.Errorf("%w: hash[%s]", crosschain.ErrBlockNotFound, hash.Hex())
	}

	return toHeader(v.db.blocks[num-1]), nil
}

// BlockTxHashes returns the txids of the block in block order.
func (v *View) BlockTxHashes(blockHash common.Hash) ([]common.Hash, error) {
	v.db.mu.RLock()
	defer v.db.mu.RUnlock()

	if err := v.checkStale(); err != nil {
		return nil, err
	}

	num, exists := v.db.byHash[blockHash]
	if !exists || num > v.tip {
		return nil, fmt.Errorf("%w: hash[%s]", crosschain.ErrBlockNotFound, blockHash.Hex())
	}

	bi := v.db.blocks[num-1]
	if bi.txHashes == nil {
		return nil, fmt.Errorf("%w: block[%d] is pruned", crosschain.ErrBlockDataUnavailable, num)
	}

	txHashes := make([]common.Hash, len(bi.txHashes))
	copy(txHashes, bi.txHashes)

	return txHashes, nil
}

// LookupTx returns where the transaction is known to be. A transaction
// confirmed after the view was captured is reported as unconfirmed.
func (v *View) LookupTx(txid common.Hash) (crosschain.TxLocation, error) {
	v.db.mu.RLock()
	defer v.db.mu.RUnlock()

	if err := v.checkStale(); err != nil {
		return crosschain.TxLocation{}, err
	}

	if num, exists := v.db.txs[txid]; exists {
		if num > v.tip {
			return crosschain.TxLocation{}, nil
		}

		loc := crosschain.TxLocation{
			Confirmed: true,
			BlockHash: v.db.blocks[num-1].hash,
			Height:    num,
		}
		return loc, nil
	}

	if _, exists := v.db.mempool[txid]; exists {
		return crosschain.TxLocation{}, nil
	}

	return crosschain.TxLocation{}, fmt.Errorf("%w: txid[%s]", crosschain.ErrTransactionNotFound, txid.Hex())
}

// Release ends the view.
func (v *View) Release() {}

// checkStale fails when the chain reorganized since the view was captured.
// The caller must hold the read lock.
func (v *View) checkStale() error {
	if v.db.generation != v.generation {
		return fmt.Errorf("%w: generation[%d] current[%d]", crosschain.ErrStaleView, v.generation, v.db.generation)
	}

	return nil
}

func toHeader(bi blockIndex) crosschain.BlockHeader {
	return crosschain.BlockHeader{
		Height:     bi.header.Number,
		Hash:       bi.hash,
		PrevHash:   bi.header.PrevBlockHash,
		MerkleRoot: bi.header.MerkleRoot,
		TxCount:    bi.txCount,
	}
}
