package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/database"
)

// ErrBlockUnlinked is returned when a proposed block does not link to any
// block known to the node.
var ErrBlockUnlinked = errors.New("block does not link to the known chain")

// =============================================================================

// ProcessProposedBlock takes a block received from the chain feed, validates
// it and if that passes, adds the block to the local chain. A block at a
// height the node already holds replaces that block and everything above it.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash, block.Hash(), len(block.Trans))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash())

	s.mu.Lock()
	defer s.mu.Unlock()

	latest := s.db.LatestBlock()
	num := block.Header.Number

	switch {
	case num >= 1 && num <= latest.Number:
		known, err := s.db.GetBlock(num)
		if err == nil && known.Hash() == block.Hash() {
			s.evHandler("state: ProcessProposedBlock: blk[%d] already known", num)
			return nil
		}

		if err := s.reorganize(block); err != nil {
			return err
		}

	default:
		if err := s.db.AddBlock(block); err != nil {
			return err
		}
	}

	s.blockEvent(block)

	if s.Worker != nil && s.keepBlocks > 0 {
		s.Worker.SignalPrune()
	}

	return nil
}

// SubmitTransaction records a transaction that is not yet in a block.
func (s *State) SubmitTransaction(tx database.BlockTx) {
	txid := s.db.AddUnconfirmed(tx)
	s.evHandler("state: SubmitTransaction: tx[%s] unconfirmed", txid)
}

// Prune drops the transactions of blocks that fell out of the kept range.
func (s *State) Prune() error {
	if s.keepBlocks == 0 {
		return nil
	}

	tip := s.db.LatestBlock().Number
	if tip <= s.keepBlocks {
		return nil
	}

	return s.db.Prune(tip - s.keepBlocks + 1)
}

// =============================================================================

// reorganize replaces the block held at the block's number, and everything
// above it, with the block. The replacement must link to the block below it.
// A replacement that fails validation leaves the chain as it was. The caller
// must hold the lock.
func (s *State) reorganize(block database.Block) error {
	num := block.Header.Number

	if num > 1 {
		parent, err := s.db.GetBlock(num - 1)
		if err != nil {
			return fmt.Errorf("reading parent of blk[%d]: %w", num, err)
		}

		if parent.Hash() != block.Header.PrevBlockHash {
			return fmt.Errorf("%w: blk[%d] parent[%s]", ErrBlockUnlinked, num, block.Header.PrevBlockHash)
		}
	}

	s.evHandler("state: reorganize: replace from blk[%d]", num)

	return s.db.Replace(block)
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"header":%s,"trans":%d}`, block.Hash(), string(blockHeaderJSON), len(block.Trans))
}
