package state

import (
	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/importcoin"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
)

// Status represents the state of the node.
type Status struct {
	Symbol      string          `json:"symbol"`
	CCID        uint32          `json:"ccid"`
	ScanWindow  uint64          `json:"scan_window"`
	Checkpoints int             `json:"checkpoints"`
	Chain       database.Status `json:"chain"`
}

// QueryStatus returns the current status of the node.
func (s *State) QueryStatus() (Status, error) {
	n, err := s.index.Checkpoints()
	if err != nil {
		return Status{}, err
	}

	status := Status{
		Symbol:      s.symbol,
		CCID:        s.ccid,
		ScanWindow:  s.prover.ScanWindow(),
		Checkpoints: n,
		Chain:       s.db.Status(),
	}

	return status, nil
}

// QueryBlock returns the block at the height.
func (s *State) QueryBlock(num uint64) (database.Block, error) {
	return s.db.GetBlock(num)
}

// =============================================================================

// AssetChainProof proves a transaction of this chain up to the notarization
// of this chain on the reference chain.
func (s *State) AssetChainProof(txid common.Hash) (merkle.TxProof, error) {
	proof, err := s.prover.AssetChainProof(txid)
	if err != nil {
		return merkle.TxProof{}, err
	}

	s.evHandler("viewer: proof: asset: txid[%s] anchor[%s] depth[%d]", txid, proof.Anchor, proof.Branch.Depth())

	return proof, nil
}

// ExtendProof extends an asset chain proof up to the MoMoM the target chain
// receives in its back notarization.
func (s *State) ExtendProof(txid common.Hash, symbol string, ccid uint32, src merkle.TxProof) (merkle.TxProof, error) {
	proof, err := s.prover.ExtendProof(txid, symbol, ccid, src)
	if err != nil {
		return merkle.TxProof{}, err
	}

	s.evHandler("viewer: proof: extend: txid[%s] target[%s:%d] anchor[%s] depth[%d]", txid, symbol, ccid, proof.Anchor, proof.Branch.Depth())

	return proof, nil
}

// ProofRoot computes the MoMoM over the window ending at a reference chain
// notarization of the named chain.
func (s *State) ProofRoot(symbol string, ccid uint32, height uint64) (crosschain.ProofRoot, error) {
	return s.prover.ProofRoot(symbol, ccid, height)
}

// NextBackNotarization returns the back notarization following the one that
// acknowledges the reference chain transaction.
func (s *State) NextBackNotarization(refTxid common.Hash) (crosschain.Notarization, error) {
	return s.prover.NextBackNotarization(refTxid)
}

// CompleteImport swaps the asset chain proof carried by an import for the
// extended proof against the target chain's MoMoM.
func (s *State) CompleteImport(importTx importcoin.Tx) (importcoin.Tx, error) {
	final, err := s.prover.CompleteImport(importTx)
	if err != nil {
		return importcoin.Tx{}, err
	}

	if txid, err := final.Hash(); err == nil {
		s.evHandler("viewer: import: completed: txid[%s]", txid)
	}

	return final, nil
}

// VerifyImport checks an import against this chain. A zero symbol selects
// the chain the node serves.
func (s *State) VerifyImport(importTx importcoin.Tx, params crosschain.ImportParams, momom common.Hash) (importcoin.BurnData, error) {
	if params.Symbol == "" {
		params = crosschain.ImportParams{Symbol: s.symbol, CCID: s.ccid}
	}

	return crosschain.VerifyImport(importTx, params, momom)
}

// QueryLatestBlock returns the header of the latest block.
func (s *State) QueryLatestBlock() database.BlockHeader {
	return s.db.LatestBlock()
}
