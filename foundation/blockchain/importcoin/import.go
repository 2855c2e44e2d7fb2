package importcoin

import (
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/rlp"
)

// ImportData is what an import transaction carries.
type ImportData struct {
	Proof   merkle.TxProof `json:"proof"`
	BurnTx  Tx             `json:"burn_tx"`
	Payouts []TxOut        `json:"payouts"`
}

// importPayload is the encoded form of the import data. The proof uses its
// fixed binary layout so it stays byte compatible across chains.
type importPayload struct {
	Tag    uint8
	Proof  []byte
	BurnTx []byte
}

// MakeImportTx constructs the import that pays out the burn on the target
// chain.
func MakeImportTx(proof merkle.TxProof, burnTx Tx, payouts []TxOut) (Tx, error) {
	proofData, err := proof.MarshalBinary()
	if err != nil {
		return Tx{}, fmt.Errorf("encoding proof: %w", err)
	}

	burnData, err := burnTx.Marshal()
	if err != nil {
		return Tx{}, err
	}

	payload, err := rlp.EncodeToBytes(importPayload{
		Tag:    tagImport,
		Proof:  proofData,
		BurnTx: burnData,
	})
	if err != nil {
		return Tx{}, fmt.Errorf("encoding import payload: %w", err)
	}

	tx := Tx{
		Version: Version,
		Outputs: payouts,
		Payload: payload,
	}

	return tx, nil
}

// UnmarshalImportTx extracts the proof, the burn and the payouts from an
// import transaction.
func UnmarshalImportTx(tx Tx) (ImportData, error) {
	var ip importPayload
	if err := rlp.DecodeBytes(tx.Payload, &ip); err != nil {
		return ImportData{}, fmt.Errorf("%w: %s", ErrNotImportTx, err)
	}

	if ip.Tag != tagImport {
		return ImportData{}, fmt.Errorf("%w: tag %q", ErrNotImportTx, ip.Tag)
	}

	var proof merkle.TxProof
	if err := proof.UnmarshalBinary(ip.Proof); err != nil {
		return ImportData{}, fmt.Errorf("%w: proof: %s", ErrNotImportTx, err)
	}

	burnTx, err := Unmarshal(ip.BurnTx)
	if err != nil {
		return ImportData{}, fmt.Errorf("%w: burn tx: %s", ErrNotImportTx, err)
	}

	id := ImportData{
		Proof:   proof,
		BurnTx:  burnTx,
		Payouts: tx.Outputs,
	}

	return id, nil
}

// WithProof returns a copy of the import carrying the specified proof. The
// burn and the payouts are preserved.
func WithProof(tx Tx, proof merkle.TxProof) (Tx, error) {
	id, err := UnmarshalImportTx(tx)
	if err != nil {
		return Tx{}, err
	}

	nt, err := MakeImportTx(proof, id.BurnTx, id.Payouts)
	if err != nil {
		return Tx{}, err
	}
	nt.Version = tx.Version
	nt.Inputs = tx.Inputs

	return nt, nil
}
