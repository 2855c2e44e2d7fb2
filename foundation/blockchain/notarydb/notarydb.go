// Package notarydb indexes the notarizations a chain knows about in LevelDB.
// On the reference chain it holds the notarizations of the asset chains by
// the block that carries them. On an asset chain it holds the back
// notarizations and the checkpoint sequence they establish.
package notarydb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrCheckpointOrder is returned when a back notarization does not move the
// notarized height forward.
var ErrCheckpointOrder = errors.New("checkpoint does not advance the notarized height")

// Set of key prefixes.
var (
	prefixBlock      = []byte("nb") // block hash -> notarizations in the block
	prefixBack       = []byte("bn") // reference txid -> back notarization
	prefixCheckpoint = []byte("cp") // sequence index -> checkpoint
	keyCount         = []byte(".checkpoint_count")
)

// =============================================================================

// DB is the notarization index.
type DB struct {
	mu        sync.Mutex // Serializes writes that read before they write.
	db        *leveldb.DB
	evHandler func(v string, args ...any)
}

// Open opens or creates the index at the path. An empty path keeps the
// index in memory.
func Open(path string, evHandler func(v string, args ...any)) (*DB, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("open notarization index at %q: %w", path, err)
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &DB{db: db, evHandler: ev}, nil
}

// Close closes the index.
func (d *DB) Close() error {
	return d.db.Close()
}

// AddNotarizations records notarizations carried by the block. They are
// appended to any already recorded for the block, keeping their order.
func (d *DB) AddNotarizations(blockHash common.Hash, notas []crosschain.Notarization) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := blockKey(blockHash)

	var list []crosschain.Notarization
	data, err := d.db.Get(key, nil)
	switch {
	case err == nil:
		if err := rlp.DecodeBytes(data, &list); err != nil {
			return fmt.Errorf("decoding notarizations of block %s: %w", blockHash.Hex(), err)
		}
	case !errors.Is(err, leveldb.ErrNotFound):
		return fmt.Errorf("reading notarizations of block %s: %w", blockHash.Hex(), err)
	}

	list = append(list, notas...)

	data, err = rlp.EncodeToBytes(list)
	if err != nil {
		return fmt.Errorf("encoding notarizations: %w", err)
	}

	if err := d.db.Put(key, data, nil); err != nil {
		return fmt.Errorf("writing notarizations of block %s: %w", blockHash.Hex(), err)
	}

	d.evHandler("notarydb: AddNotarizations: block[%s] added[%d] total[%d]", blockHash.Hex(), len(notas), len(list))

	return nil
}

// AddBackNotarization records a back notarization and appends the
// checkpoint it establishes to the sequence. The index of the checkpoint is
// returned.
func (d *DB) AddBackNotarization(nota crosschain.Notarization) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	count, err := readCount(d.db)
	if err != nil {
		return 0, err
	}

	cp := crosschain.NewCheckpoint(nota.Data)

	if count > 0 {
		last, err := readCheckpoint(d.db, count-1)
		if err != nil {
			return 0, err
		}

		if cp.NotarizedHeight <= last.NotarizedHeight {
			return 0, fmt.Errorf("%w: got %d, last %d", ErrCheckpointOrder, cp.NotarizedHeight, last.NotarizedHeight)
		}
	}

	notaData, err := rlp.EncodeToBytes(nota)
	if err != nil {
		return 0, fmt.Errorf("encoding back notarization: %w", err)
	}

	cpData, err := rlp.EncodeToBytes(cp)
	if err != nil {
		return 0, fmt.Errorf("encoding checkpoint: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(backKey(nota.Data.DestTxid), notaData)
	batch.Put(checkpointKey(count), cpData)
	batch.Put(keyCount, binary.BigEndian.AppendUint64(nil, count+1))

	if err := d.db.Write(batch, nil); err != nil {
		return 0, fmt.Errorf("writing back notarization: %w", err)
	}

	d.evHandler("notarydb: AddBackNotarization: txid[%s] ref[%s] height[%d] checkpoint[%d]", nota.Txid.Hex(), nota.Data.DestTxid.Hex(), cp.NotarizedHeight, count)

	return int(count), nil
}

// Checkpoints returns the number of checkpoints in the sequence.
func (d *DB) Checkpoints() (int, error) {
	count, err := readCount(d.db)
	return int(count), err
}

// View captures a snapshot of the index. It implements the crosschain
// IndexSource interface.
func (d *DB) View() (crosschain.NotarizationIndex, error) {
	snap, err := d.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %s", crosschain.ErrDataUnavailable, err)
	}

	return &View{snap: snap}, nil
}

// =============================================================================

// reader is the part of the database and its snapshots reads need.
type reader interface {
	Get(key []byte, ro *opt.ReadOptions) ([]byte, error)
}

func readCount(r reader) (uint64, error) {
	data, err := r.Get(keyCount, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading checkpoint count: %w", err)
	}

	if len(data) != 8 {
		return 0, fmt.Errorf("checkpoint count has %d bytes", len(data))
	}

	return binary.BigEndian.Uint64(data), nil
}

func readCheckpoint(r reader, idx uint64) (crosschain.Checkpoint, error) {
	data, err := r.Get(checkpointKey(idx), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return crosschain.Checkpoint{}, fmt.Errorf("%w: index[%d]", crosschain.ErrNotarizationNotFound, idx)
		}
		return crosschain.Checkpoint{}, fmt.Errorf("reading checkpoint %d: %w", idx, err)
	}

	var cp crosschain.Checkpoint
	if err := rlp.DecodeBytes(data, &cp); err != nil {
		return crosschain.Checkpoint{}, fmt.Errorf("decoding checkpoint %d: %w", idx, err)
	}

	return cp, nil
}

func blockKey(hash common.Hash) []byte {
	return append(append([]byte{}, prefixBlock...), hash.Bytes()...)
}

func backKey(refTxid common.Hash) []byte {
	return append(append([]byte{}, prefixBack...), refTxid.Bytes()...)
}

func checkpointKey(idx uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, prefixCheckpoint...), idx)
}
