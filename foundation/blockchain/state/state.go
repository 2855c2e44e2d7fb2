// Package state is the core API for the relay node. It owns the chain
// database and notarization index of one chain, applies the blocks and
// notarizations fed to it, and serves cross-chain proofs over them.
package state

import (
	"errors"
	"sync"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/notarydb"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks and proofs.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing background maintenance of the node.
type Worker interface {
	Shutdown()
	SignalPrune()
}

// =============================================================================

// Config represents the configuration required to start the relay node.
type Config struct {
	Symbol     string
	CCID       uint32
	DB         *database.Database
	Index      *notarydb.DB
	ScanWindow uint64
	KeepBlocks uint64
	EvHandler  EventHandler
}

// State manages the chain database and notarization index of the node.
type State struct {
	symbol     string
	ccid       uint32
	keepBlocks uint64
	evHandler  EventHandler
	mu         sync.Mutex

	db     *database.Database
	index  *notarydb.DB
	prover *crosschain.Prover

	Worker Worker
}

// New constructs the state for the relay node.
func New(cfg Config) (*State, error) {
	if cfg.DB == nil || cfg.Index == nil {
		return nil, errors.New("database and notarization index are required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	prover, err := crosschain.New(crosschain.Config{
		Chain:      cfg.DB,
		Index:      cfg.Index,
		ScanWindow: cfg.ScanWindow,
		EvHandler:  crosschain.EventHandler(ev),
	})
	if err != nil {
		return nil, err
	}

	state := State{
		symbol:     cfg.Symbol,
		ccid:       cfg.CCID,
		keepBlocks: cfg.KeepBlocks,
		evHandler:  ev,

		db:     cfg.DB,
		index:  cfg.Index,
		prover: prover,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all background activity before closing the stores.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.db.Close()
	return s.index.Close()
}

// Symbol returns the symbol of the chain this node serves.
func (s *State) Symbol() string {
	return s.symbol
}

// CCID returns the notarization group of the chain this node serves.
func (s *State) CCID() uint32 {
	return s.ccid
}

// ScanWindow returns the number of reference chain blocks scanned when
// collecting MoMs.
func (s *State) ScanWindow() uint64 {
	return s.prover.ScanWindow()
}
