package database

import (
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BlockTx represents a transaction as it's recorded inside a block. The
// transaction format belongs to the chain, only its encoding is stored and
// the txid is the double sha256 of that encoding.
type BlockTx struct {
	Data hexutil.Bytes `json:"data"`
}

// NewBlockTx constructs a block transaction from the encoded transaction.
func NewBlockTx(data []byte) BlockTx {
	return BlockTx{Data: data}
}

// Hash implements the merkle Hashable interface for providing the txid.
func (tx BlockTx) Hash() (common.Hash, error) {
	return merkle.HashBytes(tx.Data), nil
}

// TxID returns the txid of the transaction.
func (tx BlockTx) TxID() common.Hash {
	return merkle.HashBytes(tx.Data)
}
