package crosschain

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
)

// AssetChainProof runs on an asset chain and proves the transaction up to
// the MoM of the checkpoint covering its block. The returned proof is
// anchored on the reference chain notarization of that checkpoint.
func (p *Prover) AssetChainProof(txid common.Hash) (merkle.TxProof, error) {
	chain, index, release, err := p.views()
	if err != nil {
		return merkle.TxProof{}, err
	}
	defer release()

	p.evHandler("crosschain: AssetChainProof: started: txid[%s]", txid.Hex())

	loc, err := chain.LookupTx(txid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return merkle.TxProof{}, fmt.Errorf("%w: txid[%s]", ErrTransactionNotFound, txid.Hex())
		}
		return merkle.TxProof{}, fmt.Errorf("lookup tx: %w", err)
	}

	if !loc.Confirmed {
		return merkle.TxProof{}, fmt.Errorf("%w: txid[%s] is not confirmed", ErrTransactionNotFound, txid.Hex())
	}

	header, err := chain.BlockByHash(loc.BlockHash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return merkle.TxProof{}, fmt.Errorf("%w: containing block[%s]", ErrBlockNotFound, loc.BlockHash.Hex())
		}
		return merkle.TxProof{}, fmt.Errorf("lookup block: %w", err)
	}

	cp, _, err := index.CheckpointForHeight(header.Height)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return merkle.TxProof{}, fmt.Errorf("%w: height[%d]", ErrNotarizationNotFound, header.Height)
		}
		return merkle.TxProof{}, fmt.Errorf("lookup checkpoint: %w", err)
	}

	if !cp.Covers(header.Height) {
		return merkle.TxProof{}, fmt.Errorf("%w: checkpoint at height[%d] does not cover height[%d]", ErrNotarizationNotFound, cp.NotarizedHeight, header.Height)
	}

	blockBranch, err := blockToMoM(chain, cp, header)
	if err != nil {
		return merkle.TxProof{}, err
	}

	txBranch, err := txToBlock(chain, txid, header)
	if err != nil {
		return merkle.TxProof{}, err
	}

	composed, err := txBranch.Extend(blockBranch)
	if err != nil {
		return merkle.TxProof{}, fmt.Errorf("%w: %s", ErrProofValidationFailed, err)
	}

	if composed.Exec(txid) != cp.MoM {
		return merkle.TxProof{}, fmt.Errorf("%w: txid[%s] mom[%s]", ErrProofValidationFailed, txid.Hex(), cp.MoM.Hex())
	}

	p.evHandler("crosschain: AssetChainProof: completed: txid[%s] height[%d] notarized[%d] index[%d] depth[%d]", txid.Hex(), header.Height, cp.NotarizedHeight, composed.Index, composed.Depth())

	return merkle.TxProof{Anchor: cp.DestTxid, Branch: composed}, nil
}

// blockToMoM builds the branch from the block's merkle root to the MoM. The
// leaves are the merkle roots of the MoMDepth blocks ending at the notarized
// height, most recent first.
func blockToMoM(chain ChainView, cp Checkpoint, header BlockHeader) (merkle.Branch, error) {
	if uint64(cp.MoMDepth) > cp.NotarizedHeight {
		return merkle.Branch{}, fmt.Errorf("%w: depth[%d] exceeds notarized height[%d]", ErrBlockMoMMismatch, cp.MoMDepth, cp.NotarizedHeight)
	}

	leaves := make([]common.Hash, cp.MoMDepth)
	for i := range leaves {
		height := cp.NotarizedHeight - uint64(i)

		blk, err := chain.BlockByHeight(height)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return merkle.Branch{}, fmt.Errorf("%w: height[%d] within MoM", ErrBlockNotFound, height)
			}
			return merkle.Branch{}, fmt.Errorf("block at height %d: %w", height, err)
		}

		leaves[i] = blk.MerkleRoot
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return merkle.Branch{}, fmt.Errorf("block roots tree: %w", err)
	}

	branch, err := tree.Branch(int(cp.NotarizedHeight - header.Height))
	if err != nil {
		return merkle.Branch{}, fmt.Errorf("%w: %s", ErrBlockMoMMismatch, err)
	}

	if branch.Exec(header.MerkleRoot) != cp.MoM {
		return merkle.Branch{}, fmt.Errorf("%w: height[%d] mom[%s]", ErrBlockMoMMismatch, header.Height, cp.MoM.Hex())
	}

	return branch, nil
}

// txToBlock builds the branch from the transaction to the block's merkle
// root.
func txToBlock(chain ChainView, txid common.Hash, header BlockHeader) (merkle.Branch, error) {
	txs, err := chain.BlockTxHashes(header.Hash)
	if err != nil {
		switch {
		case errors.Is(err, ErrStaleView):
			return merkle.Branch{}, err
		case errors.Is(err, ErrDataUnavailable):
			return merkle.Branch{}, fmt.Errorf("%w: block[%s]: %s", ErrBlockDataUnavailable, header.Hash.Hex(), err)
		case errors.Is(err, ErrNotFound):
			return merkle.Branch{}, fmt.Errorf("%w: block[%s]: %s", ErrBlockNotFound, header.Hash.Hex(), err)
		}
		return merkle.Branch{}, fmt.Errorf("block transactions: %w", err)
	}

	pos := -1
	for i, h := range txs {
		if h == txid {
			pos = i
			break
		}
	}

	if pos == -1 {
		return merkle.Branch{}, fmt.Errorf("%w: txid[%s] block[%s]", ErrTransactionNotInBlock, txid.Hex(), header.Hash.Hex())
	}

	tree, err := merkle.NewTree(txs)
	if err != nil {
		return merkle.Branch{}, fmt.Errorf("transaction tree: %w", err)
	}

	branch, err := tree.Branch(pos)
	if err != nil {
		return merkle.Branch{}, fmt.Errorf("%w: %s", ErrTxBlockMismatch, err)
	}

	if branch.Exec(txid) != header.MerkleRoot {
		return merkle.Branch{}, fmt.Errorf("%w: txid[%s] root[%s]", ErrTxBlockMismatch, txid.Hex(), header.MerkleRoot.Hex())
	}

	return branch, nil
}
