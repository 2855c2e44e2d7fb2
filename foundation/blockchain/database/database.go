// Package database handles all the lower level support for maintaining the
// blockchain in storage and the in memory indexes the proofs read through
// point-in-time views.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ethereum/go-ethereum/common"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Truncate(num uint64) error
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// blockIndex is what is kept in memory for each block.
type blockIndex struct {
	header   BlockHeader
	hash     common.Hash
	txHashes []common.Hash // Nil when the block is pruned.
	txCount  int
}

// Status represents a summary of the chain held by the database.
type Status struct {
	Height      uint64      `json:"height"`
	Hash        common.Hash `json:"hash"`
	Mempool     int         `json:"mempool"`
	Generation  uint64      `json:"generation"`
	PrunedBelow uint64      `json:"pruned_below"`
}

// Database manages the blocks and transactions of a chain.
type Database struct {
	mu sync.RWMutex

	blocks      []blockIndex           // Block n is at index n-1.
	byHash      map[common.Hash]uint64 // Block hash to block number.
	txs         map[common.Hash]uint64 // Txid to containing block number.
	mempool     map[common.Hash]BlockTx
	generation  uint64 // Incremented on each reorg.
	prunedBelow uint64

	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs a new database and reads the blockchain from the
// serializer.
func New(serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		byHash:     make(map[common.Hash]uint64),
		txs:        make(map[common.Hash]uint64),
		mempool:    make(map[common.Hash]BlockTx),
		serializer: serializer,
		evHandler:  ev,
	}

	// Read all the blocks from storage.
	iter := db.serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if blockData.Pruned {
			if err := db.indexPruned(block.Header); err != nil {
				return nil, err
			}
			continue
		}

		if err := block.ValidateBlock(db.latestHeader(), ev); err != nil {
			return nil, err
		}

		if err := db.index(block); err != nil {
			return nil, err
		}
	}

	ev("database: New: loaded: height[%d]", len(db.blocks))

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() {
	db.serializer.Close()
}

// Reset re-initalizes the database back to an empty chain.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return err
	}

	db.blocks = nil
	db.byHash = make(map[common.Hash]uint64)
	db.txs = make(map[common.Hash]uint64)
	db.mempool = make(map[common.Hash]BlockTx)
	db.prunedBelow = 0
	db.generation++

	return nil
}

// AddBlock validates the block against the tip, writes it to storage and
// indexes its transactions.
func (db *Database) AddBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.latestHeader(), db.evHandler); err != nil {
		return err
	}

	if err := db.append(block); err != nil {
		return err
	}

	db.evHandler("database: AddBlock: blk[%d] hash[%s] txs[%d]", block.Header.Number, block.Hash(), len(block.Trans))

	return nil
}

// Replace swaps the block held at the block's number, and every block above
// it, for the block. The block is validated against its parent first, so a
// rejected block leaves the chain untouched.
func (db *Database) Replace(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	num := block.Header.Number
	if num == 0 || num > uint64(len(db.blocks)) {
		return fmt.Errorf("block %d is not held, height %d", num, len(db.blocks))
	}

	var parent BlockHeader
	if num > 1 {
		parent = db.blocks[num-2].header
	}

	if err := block.ValidateBlock(parent, db.evHandler); err != nil {
		return err
	}

	if err := db.truncate(num - 1); err != nil {
		return err
	}

	if err := db.append(block); err != nil {
		return err
	}

	db.evHandler("database: Replace: blk[%d] hash[%s] generation[%d]", num, block.Hash(), db.generation)

	return nil
}

// AddUnconfirmed records a transaction that is known but not yet in a block.
func (db *Database) AddUnconfirmed(tx BlockTx) common.Hash {
	db.mu.Lock()
	defer db.mu.Unlock()

	txid := tx.TxID()
	if _, exists := db.txs[txid]; !exists {
		db.mempool[txid] = tx
	}

	return txid
}

// Prune drops the transactions of every block below the height from
// storage. The headers and the transaction index are kept.
func (db *Database) Prune(below uint64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for num := db.prunedBelow + 1; num < below && num <= uint64(len(db.blocks)); num++ {
		bi := &db.blocks[num-1]
		if bi.txHashes == nil {
			continue
		}

		blockData := BlockData{
			Hash:   bi.hash,
			Header: bi.header,
			Pruned: true,
		}
		if err := db.serializer.Write(blockData); err != nil {
			return fmt.Errorf("prune block %d: %w", num, err)
		}

		bi.txHashes = nil
		db.prunedBelow = num
	}

	db.evHandler("database: Prune: below[%d]", below)

	return nil
}

// Truncate removes every block above the height. Transactions of the removed
// blocks return to the mempool and every open view becomes stale.
func (db *Database) Truncate(height uint64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.truncate(height)
}

// LatestBlock returns the header of the latest block.
func (db *Database) LatestBlock() BlockHeader {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestHeader()
}

// Status returns a summary of the chain.
func (db *Database) Status() Status {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := Status{
		Height:      uint64(len(db.blocks)),
		Mempool:     len(db.mempool),
		Generation:  db.generation,
		PrunedBelow: db.prunedBelow + 1,
	}
	if len(db.blocks) > 0 {
		s.Hash = db.blocks[len(db.blocks)-1].hash
	}

	return s
}

// GetBlock reads the specified block by number from storage.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.serializer.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// View captures the current tip for a consistent read of the chain. It
// implements the crosschain ChainSource interface.
func (db *Database) View() (crosschain.ChainView, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	v := View{
		db:         db,
		tip:        uint64(len(db.blocks)),
		generation: db.generation,
	}

	return &v, nil
}

// =============================================================================

// append writes the block to storage and indexes it. The caller must hold
// the write lock and have validated the block against the tip.
func (db *Database) append(block Block) error {
	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("write block %d: %w", block.Header.Number, err)
	}

	return db.index(block)
}

// truncate removes every block above the height. The caller must hold the
// write lock.
func (db *Database) truncate(height uint64) error {
	if height >= uint64(len(db.blocks)) {
		return nil
	}

	// Return the transactions of the removed blocks to the mempool while
	// their bodies can still be read.
	for _, bi := range db.blocks[height:] {
		if bi.txHashes == nil {
			continue
		}

		blockData, err := db.serializer.GetBlock(bi.header.Number)
		if err != nil {
			return fmt.Errorf("read block %d: %w", bi.header.Number, err)
		}

		for _, tx := range blockData.Trans {
			db.mempool[tx.TxID()] = tx
		}
	}

	if err := db.serializer.Truncate(height); err != nil {
		return fmt.Errorf("truncate to %d: %w", height, err)
	}

	for _, bi := range db.blocks[height:] {
		delete(db.byHash, bi.hash)
	}

	for txid, num := range db.txs {
		if num > height {
			delete(db.txs, txid)
		}
	}

	db.blocks = db.blocks[:height]
	db.prunedBelow = min(db.prunedBelow, height)
	db.generation++

	db.evHandler("database: Truncate: height[%d] generation[%d]", height, db.generation)

	return nil
}

// latestHeader returns the header at the tip. The caller must hold a lock.
func (db *Database) latestHeader() BlockHeader {
	if len(db.blocks) == 0 {
		return BlockHeader{}
	}

	return db.blocks[len(db.blocks)-1].header
}

// index adds the block to the in memory indexes. The caller must hold the
// write lock or own the database exclusively.
func (db *Database) index(block Block) error {
	txHashes, err := block.TxHashes()
	if err != nil {
		return err
	}

	if txHashes == nil {
		txHashes = []common.Hash{}
	}

	hash := block.Hash()
	num := block.Header.Number

	db.blocks = append(db.blocks, blockIndex{
		header:   block.Header,
		hash:     hash,
		txHashes: txHashes,
		txCount:  len(txHashes),
	})
	db.byHash[hash] = num

	for _, txid := range txHashes {
		db.txs[txid] = num
		delete(db.mempool, txid)
	}

	return nil
}

// indexPruned adds a block whose transactions are gone. Only the header
// chain can be checked.
func (db *Database) indexPruned(header BlockHeader) error {
	prev := db.latestHeader()
	if header.Number != prev.Number+1 {
		return fmt.Errorf("pruned block is not the next number, got %d, exp %d", header.Number, prev.Number+1)
	}

	if prev.Number > 0 && header.PrevBlockHash != prev.Hash() {
		return errors.New("pruned block parent hash doesn't match our known parent")
	}

	hash := header.Hash()
	db.blocks = append(db.blocks, blockIndex{
		header: header,
		hash:   hash,
	})
	db.byHash[hash] = header.Number
	db.prunedBelow = header.Number

	return nil
}
