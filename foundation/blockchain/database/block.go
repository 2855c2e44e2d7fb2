package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrChainForked is returned from ValidateBlock if the block is two or more
// blocks ahead of our chain.
var ErrChainForked = errors.New("blockchain forked, start resync")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	PrevBlockHash common.Hash `json:"prev_block_hash"` // Bitcoin: Hash of the previous block in the chain.
	Number        uint64      `json:"number"`          // Ethereum: Block number in the chain.
	TimeStamp     uint64      `json:"timestamp"`       // Bitcoin: Time the block was produced.
	MerkleRoot    common.Hash `json:"merkle_root"`     // Bitcoin: Merkle root of the transactions in this block.
}

// Hash returns the unique hash for the header.
func (bh BlockHeader) Hash() common.Hash {

	// Hashing the header and not the whole block so the chain can be checked
	// with only the headers. Pruned blocks still carry their header.
	data, err := rlp.EncodeToBytes(bh)
	if err != nil {
		return common.Hash{}
	}

	return merkle.HashBytes(data)
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []BlockTx
}

// NewBlock constructs the block that follows the previous header with the
// specified transactions. A zero previous header produces block 1.
func NewBlock(prev BlockHeader, timeStamp time.Time, trans []BlockTx) (Block, error) {
	leaves, err := merkle.Hashes(trans)
	if err != nil {
		return Block{}, err
	}

	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return Block{}, err
	}

	prevBlockHash := common.Hash{}
	if prev.Number > 0 {
		prevBlockHash = prev.Hash()
	}

	nb := Block{
		Header: BlockHeader{
			PrevBlockHash: prevBlockHash,
			Number:        prev.Number + 1,
			TimeStamp:     uint64(timeStamp.UTC().Unix()),
			MerkleRoot:    tree.Root(),
		},
		Trans: trans,
	}

	return nb, nil
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() common.Hash {
	return b.Header.Hash()
}

// TxHashes returns the transaction ids in block order.
func (b Block) TxHashes() ([]common.Hash, error) {
	return merkle.Hashes(b.Trans)
}

// ValidateBlock takes a block and validates it to be included into the blockchain.
func (b Block) ValidateBlock(previous BlockHeader, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: chain is not forked", b.Header.Number)

	// The block is two or more blocks ahead of ours. This means there has
	// been a fork and we are on the wrong side.
	nextNumber := previous.Number + 1
	if b.Header.Number >= (nextNumber + 2) {
		return ErrChainForked
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	var prevHash common.Hash
	if previous.Number > 0 {
		prevHash = previous.Hash()
	}

	if b.Header.PrevBlockHash != prevHash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, prevHash)
	}

	if previous.TimeStamp > 0 {
		evHandler("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

		parentTime := time.Unix(int64(previous.TimeStamp), 0)
		blockTime := time.Unix(int64(b.Header.TimeStamp), 0)
		if blockTime.Before(parentTime) {
			return fmt.Errorf("block timestamp is before parent block, parent %s, block %s", parentTime, blockTime)
		}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	leaves, err := b.TxHashes()
	if err != nil {
		return err
	}

	if root := merkle.Root(leaves); len(leaves) == 0 || root != b.Header.MerkleRoot {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", root, b.Header.MerkleRoot)
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
// Pruned blocks keep their header and drop their transactions.
type BlockData struct {
	Hash   common.Hash `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []BlockTx   `json:"trans"`
	Pruned bool        `json:"pruned,omitempty"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
	}

	return blockData
}

// ToBlock converts a storage block into a database block. The hash of the
// header must match the hash that was stored.
func ToBlock(blockData BlockData) (Block, error) {
	if hash := blockData.Header.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("block %d hash mismatch, got %s, exp %s", blockData.Header.Number, hash, blockData.Hash)
	}

	block := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}

	return block, nil
}
