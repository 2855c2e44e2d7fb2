// Package crosschain builds the merkle proofs that carry a transaction from
// one asset chain to another through the notarizations both chains make on
// a shared reference chain.
//
// On the asset chain a transaction is proven up to the chain's own MoM. On
// the reference chain that proof is extended to the MoMoM, the merkle root
// over the MoMs every chain of the notarization group contributed within a
// window. The target chain only needs to trust the MoMoM delivered to it
// by its own back notarization.
package crosschain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultScanWindow is the number of reference chain blocks scanned backward
// when collecting MoMs. At one block a minute this covers a day, which must
// exceed the worst-case gap between two notarizations of the same chain
// plus the lag of the back notarization.
const DefaultScanWindow = 1440

// EventHandler defines a function that is called when events occur in the
// processing of proofs.
type EventHandler func(v string, args ...any)

// =============================================================================

// ChainView is a point-in-time, read-only view of a blockchain. Absence is
// reported with errors matching ErrNotFound and unreadable block bodies with
// errors matching ErrDataUnavailable.
type ChainView interface {
	TipHeight() uint64
	BlockByHeight(height uint64) (BlockHeader, error)
	BlockByHash(hash common.Hash) (BlockHeader, error)
	BlockTxHashes(blockHash common.Hash) ([]common.Hash, error)
	LookupTx(txid common.Hash) (TxLocation, error)
	Release()
}

// ChainSource provides views of a blockchain. A view must stay consistent
// for the duration of one proof construction.
type ChainSource interface {
	View() (ChainView, error)
}

// NotarizationIndex is a point-in-time, read-only view of the notarizations
// known to a chain. Absence is reported with errors matching ErrNotFound.
type NotarizationIndex interface {
	NotarizationsInBlock(blockHash common.Hash) ([]Notarization, error)
	CheckpointForHeight(height uint64) (Checkpoint, int, error)
	CheckpointAt(index int) (Checkpoint, error)
	BackNotarization(refTxid common.Hash) (Notarization, error)
	Release()
}

// IndexSource provides views of a notarization index.
type IndexSource interface {
	View() (NotarizationIndex, error)
}

// =============================================================================

// Config represents the configuration required to construct a prover.
type Config struct {
	Chain      ChainSource
	Index      IndexSource
	ScanWindow uint64
	EvHandler  EventHandler
}

// Prover builds and extends cross-chain proofs against the chain state it
// is configured with. It holds no mutable state and is safe for concurrent
// use when the sources are.
type Prover struct {
	chain      ChainSource
	index      IndexSource
	scanWindow uint64
	evHandler  EventHandler
}

// New constructs a prover for the specified chain and notarization index.
func New(cfg Config) (*Prover, error) {
	if cfg.Chain == nil {
		return nil, errors.New("chain source is required")
	}

	if cfg.Index == nil {
		return nil, errors.New("notarization index source is required")
	}

	scanWindow := cfg.ScanWindow
	if scanWindow == 0 {
		scanWindow = DefaultScanWindow
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	p := Prover{
		chain:      cfg.Chain,
		index:      cfg.Index,
		scanWindow: scanWindow,
		evHandler:  ev,
	}

	return &p, nil
}

// ScanWindow returns the number of blocks a proof root scan covers.
func (p *Prover) ScanWindow() uint64 {
	return p.scanWindow
}

// views opens a view of the chain and of the index. The returned function
// releases both.
func (p *Prover) views() (ChainView, NotarizationIndex, func(), error) {
	chain, err := p.chain.View()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening chain view: %w", err)
	}

	index, err := p.index.View()
	if err != nil {
		chain.Release()
		return nil, nil, nil, fmt.Errorf("opening notarization index view: %w", err)
	}

	release := func() {
		index.Release()
		chain.Release()
	}

	return chain, index, release, nil
}
