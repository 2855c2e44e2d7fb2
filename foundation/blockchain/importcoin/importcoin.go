// Package importcoin provides the burn and import transactions that move
// value between asset chains. A burn destroys value on the source chain and
// commits to the target chain and the payouts. An import recreates those
// payouts on the target chain and carries the proof that the burn happened.
package importcoin

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rlp"
)

// Version is the transaction format version produced by this package.
const Version = 1

// OpReturn is the script opcode marking an output as unspendable.
const OpReturn = 0x6a

// Set of payload tags.
const (
	tagBurn   uint8 = 'B'
	tagImport uint8 = 'I'
)

// Set of errors for parsing transactions.
var (
	ErrMalformedTx   = errors.New("malformed transaction")
	ErrNotBurnTx     = errors.New("not a burn transaction")
	ErrNotImportTx   = errors.New("not an import transaction")
	ErrValueOverflow = errors.New("payout values overflow")
)

// =============================================================================

// TxOut is a value paid to a script.
type TxOut struct {
	Value  uint64        `json:"value"`
	Script hexutil.Bytes `json:"script"`
}

// Tx is the transaction container shared by burns and imports. The payload
// carries the tagged burn or import data.
type Tx struct {
	Version uint32        `json:"version"`
	Inputs  []common.Hash `json:"inputs"`
	Outputs []TxOut       `json:"outputs"`
	Payload hexutil.Bytes `json:"payload"`
}

// Hash implements the merkle Hashable interface and returns the txid.
func (tx Tx) Hash() (common.Hash, error) {
	data, err := tx.Marshal()
	if err != nil {
		return common.Hash{}, err
	}

	return merkle.HashBytes(data), nil
}

// Marshal returns the rlp encoding of the transaction.
func (tx Tx) Marshal() ([]byte, error) {
	data, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return nil, fmt.Errorf("encoding tx: %w", err)
	}

	return data, nil
}

// Hex returns the hex encoding of the marshaled transaction.
func (tx Tx) Hex() (string, error) {
	data, err := tx.Marshal()
	if err != nil {
		return "", err
	}

	return hexutil.Encode(data), nil
}

// Unmarshal decodes a transaction from its rlp encoding.
func Unmarshal(data []byte) (Tx, error) {
	var tx Tx
	if err := rlp.DecodeBytes(data, &tx); err != nil {
		return Tx{}, fmt.Errorf("%w: %s", ErrMalformedTx, err)
	}

	return tx, nil
}

// FromHex decodes a transaction from the hex of its rlp encoding.
func FromHex(s string) (Tx, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return Tx{}, fmt.Errorf("%w: %s", ErrMalformedTx, err)
	}

	return Unmarshal(data)
}

// =============================================================================

// PayoutsHash returns the commitment a burn makes to the outputs the
// matching import must create.
func PayoutsHash(payouts []TxOut) (common.Hash, error) {
	if payouts == nil {
		payouts = []TxOut{}
	}

	data, err := rlp.EncodeToBytes(payouts)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encoding payouts: %w", err)
	}

	return merkle.HashBytes(data), nil
}

// PayoutsTotal returns the sum of the payout values.
func PayoutsTotal(payouts []TxOut) (uint64, error) {
	var total uint64
	for _, out := range payouts {
		if total+out.Value < total {
			return 0, ErrValueOverflow
		}
		total += out.Value
	}

	return total, nil
}
