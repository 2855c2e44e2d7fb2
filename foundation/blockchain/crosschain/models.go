package crosschain

import (
	"github.com/ethereum/go-ethereum/common"
)

// NotarizationData is what a notarization attests about a chain.
type NotarizationData struct {
	Symbol    string      `json:"symbol"`     // Chain being notarized.
	CCID      uint32      `json:"ccid"`       // Notarization group. Values <= 1 never yield cross-chain proofs.
	Height    uint64      `json:"height"`     // Height being notarized.
	BlockHash common.Hash `json:"block_hash"` // Hash of the notarized block.
	MoM       common.Hash `json:"mom"`        // Merkle root over MoMDepth block merkle roots ending at Height.
	MoMDepth  uint32      `json:"mom_depth"`  // Number of blocks folded into MoM.
	DestTxid  common.Hash `json:"dest_txid"`  // Txid of the matching notarization on the other chain.
}

// Notarization is a notarization record along with the transaction that
// carries it.
type Notarization struct {
	Txid common.Hash      `json:"txid"`
	Data NotarizationData `json:"data"`
}

// Checkpoint is an indexed notarization usable for range queries by height
// or by sequence position.
type Checkpoint struct {
	NotarizedHeight uint64      `json:"notarized_height"`
	NotarizedHash   common.Hash `json:"notarized_hash"`
	DestTxid        common.Hash `json:"dest_txid"`
	MoM             common.Hash `json:"mom"`
	MoMDepth        uint32      `json:"mom_depth"`
}

// NewCheckpoint constructs the checkpoint a back notarization establishes.
func NewCheckpoint(data NotarizationData) Checkpoint {
	return Checkpoint{
		NotarizedHeight: data.Height,
		NotarizedHash:   data.BlockHash,
		DestTxid:        data.DestTxid,
		MoM:             data.MoM,
		MoMDepth:        data.MoMDepth,
	}
}

// Covers reports whether the block at the height is folded into the
// checkpoint's MoM.
func (cp Checkpoint) Covers(height uint64) bool {
	if cp.MoMDepth == 0 || height > cp.NotarizedHeight {
		return false
	}

	return height+uint64(cp.MoMDepth) > cp.NotarizedHeight
}

// BlockHeader is the part of a block the proofs need.
type BlockHeader struct {
	Height     uint64      `json:"height"`
	Hash       common.Hash `json:"hash"`
	PrevHash   common.Hash `json:"prev_hash"`
	MerkleRoot common.Hash `json:"merkle_root"`
	TxCount    int         `json:"tx_count"`
}

// TxLocation describes where a transaction is known to be.
type TxLocation struct {
	Confirmed bool        `json:"confirmed"`
	BlockHash common.Hash `json:"block_hash"` // Set when confirmed.
	Height    uint64      `json:"height"`     // Set when confirmed.
}

// ProofRoot is the result of scanning the reference chain for the MoMs of a
// notarization group.
type ProofRoot struct {
	MoMoM      common.Hash   `json:"momom"`
	MoMs       []common.Hash `json:"moms"`
	AnchorTxid common.Hash   `json:"anchor_txid"`
}

// IsNull reports there is no proof available for the window.
func (pr ProofRoot) IsNull() bool {
	return len(pr.MoMs) == 0
}
