package state

import (
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ethereum/go-ethereum/common"
)

// AddNotarizations indexes the notarizations carried by a block the node
// already holds.
func (s *State) AddNotarizations(blockHash common.Hash, notas []crosschain.Notarization) error {
	view, err := s.db.View()
	if err != nil {
		return err
	}
	defer view.Release()

	if _, err := view.BlockByHash(blockHash); err != nil {
		return fmt.Errorf("notarizations for block %s: %w", blockHash.Hex(), err)
	}

	if err := s.index.AddNotarizations(blockHash, notas); err != nil {
		return err
	}

	for _, nota := range notas {
		s.evHandler("viewer: notarization: block[%s] symbol[%s] ccid[%d] height[%d] txid[%s]", blockHash, nota.Data.Symbol, nota.Data.CCID, nota.Data.Height, nota.Txid)
	}

	return nil
}

// AddBackNotarization records a back notarization of this chain and returns
// the index of the checkpoint it produced.
func (s *State) AddBackNotarization(nota crosschain.Notarization) (int, error) {
	idx, err := s.index.AddBackNotarization(nota)
	if err != nil {
		return 0, err
	}

	s.evHandler("viewer: backnotarization: idx[%d] height[%d] ref[%s]", idx, nota.Data.Height, nota.Data.DestTxid)

	return idx, nil
}
