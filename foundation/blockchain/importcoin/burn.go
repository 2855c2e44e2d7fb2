package importcoin

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// BurnData is what a burn commits to.
type BurnData struct {
	Symbol      string      `json:"symbol"`
	CCID        uint32      `json:"ccid"`
	PayoutsHash common.Hash `json:"payouts_hash"`
}

// burnPayload is the encoded form of the burn data.
type burnPayload struct {
	Tag         uint8
	Symbol      string
	CCID        uint32
	PayoutsHash common.Hash
}

// MakeBurnTx constructs a burn of the specified inputs whose value is
// payable on the target chain to the payouts. The burned value sits in a
// single unspendable output.
func MakeBurnTx(inputs []common.Hash, symbol string, ccid uint32, payouts []TxOut) (Tx, error) {
	if symbol == "" {
		return Tx{}, fmt.Errorf("target symbol is required")
	}

	total, err := PayoutsTotal(payouts)
	if err != nil {
		return Tx{}, err
	}

	payoutsHash, err := PayoutsHash(payouts)
	if err != nil {
		return Tx{}, err
	}

	payload, err := rlp.EncodeToBytes(burnPayload{
		Tag:         tagBurn,
		Symbol:      symbol,
		CCID:        ccid,
		PayoutsHash: payoutsHash,
	})
	if err != nil {
		return Tx{}, fmt.Errorf("encoding burn payload: %w", err)
	}

	tx := Tx{
		Version: Version,
		Inputs:  inputs,
		Outputs: []TxOut{{Value: total, Script: []byte{OpReturn}}},
		Payload: payload,
	}

	return tx, nil
}

// UnmarshalBurnTx extracts the burn commitment from a burn transaction.
func UnmarshalBurnTx(tx Tx) (BurnData, error) {
	if len(tx.Outputs) != 1 || len(tx.Outputs[0].Script) == 0 || tx.Outputs[0].Script[0] != OpReturn {
		return BurnData{}, fmt.Errorf("%w: missing burn output", ErrNotBurnTx)
	}

	var bp burnPayload
	if err := rlp.DecodeBytes(tx.Payload, &bp); err != nil {
		return BurnData{}, fmt.Errorf("%w: %s", ErrNotBurnTx, err)
	}

	if bp.Tag != tagBurn {
		return BurnData{}, fmt.Errorf("%w: tag %q", ErrNotBurnTx, bp.Tag)
	}

	bd := BurnData{
		Symbol:      bp.Symbol,
		CCID:        bp.CCID,
		PayoutsHash: bp.PayoutsHash,
	}

	return bd, nil
}
