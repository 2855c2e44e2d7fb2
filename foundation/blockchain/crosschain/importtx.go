package crosschain

import (
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/importcoin"
	"github.com/ethereum/go-ethereum/common"
)

// ImportParams identifies the chain an import is being accepted on.
type ImportParams struct {
	Symbol string `json:"symbol"`
	CCID   uint32 `json:"ccid"`
}

// CompleteImport runs on the reference chain and replaces the asset chain
// proof embedded in the import with the proof extended to the MoMoM of the
// burn's target. The burn and the payouts are preserved.
func (p *Prover) CompleteImport(importTx importcoin.Tx) (importcoin.Tx, error) {
	id, err := importcoin.UnmarshalImportTx(importTx)
	if err != nil {
		return importcoin.Tx{}, fmt.Errorf("%w: %s", ErrMalformedImportTransaction, err)
	}

	burn, err := importcoin.UnmarshalBurnTx(id.BurnTx)
	if err != nil {
		return importcoin.Tx{}, fmt.Errorf("%w: %s", ErrMalformedBurnTransaction, err)
	}

	burnTxid, err := id.BurnTx.Hash()
	if err != nil {
		return importcoin.Tx{}, fmt.Errorf("%w: %s", ErrMalformedBurnTransaction, err)
	}

	p.evHandler("crosschain: CompleteImport: started: burn[%s] target[%s] ccid[%d]", burnTxid.Hex(), burn.Symbol, burn.CCID)

	proof, err := p.ExtendProof(burnTxid, burn.Symbol, burn.CCID, id.Proof)
	if err != nil {
		return importcoin.Tx{}, err
	}

	tx, err := importcoin.WithProof(importTx, proof)
	if err != nil {
		return importcoin.Tx{}, fmt.Errorf("%w: %s", ErrMalformedImportTransaction, err)
	}

	p.evHandler("crosschain: CompleteImport: completed: burn[%s] anchor[%s]", burnTxid.Hex(), proof.Anchor.Hex())

	return tx, nil
}

// VerifyImport runs on the target chain and checks the import against the
// MoMoM the target chain trusts for the proof's anchor. The burn it pays out
// is returned on success.
func VerifyImport(importTx importcoin.Tx, params ImportParams, momom common.Hash) (importcoin.BurnData, error) {
	id, err := importcoin.UnmarshalImportTx(importTx)
	if err != nil {
		return importcoin.BurnData{}, fmt.Errorf("%w: %s", ErrMalformedImportTransaction, err)
	}

	burn, err := importcoin.UnmarshalBurnTx(id.BurnTx)
	if err != nil {
		return importcoin.BurnData{}, fmt.Errorf("%w: %s", ErrMalformedBurnTransaction, err)
	}

	if burn.Symbol != params.Symbol || burn.CCID != params.CCID {
		return importcoin.BurnData{}, fmt.Errorf("%w: burn targets %s/%d", ErrWrongTarget, burn.Symbol, burn.CCID)
	}

	payoutsHash, err := importcoin.PayoutsHash(id.Payouts)
	if err != nil {
		return importcoin.BurnData{}, fmt.Errorf("%w: %s", ErrMalformedImportTransaction, err)
	}

	if payoutsHash != burn.PayoutsHash {
		return importcoin.BurnData{}, fmt.Errorf("%w: got %s, exp %s", ErrPayoutsMismatch, payoutsHash.Hex(), burn.PayoutsHash.Hex())
	}

	burnTxid, err := id.BurnTx.Hash()
	if err != nil {
		return importcoin.BurnData{}, fmt.Errorf("%w: %s", ErrMalformedBurnTransaction, err)
	}

	if err := id.Proof.Branch.Validate(); err != nil {
		return importcoin.BurnData{}, fmt.Errorf("%w: %s", ErrMalformedProof, err)
	}

	if err := id.Proof.Branch.Verify(burnTxid, momom); err != nil {
		return importcoin.BurnData{}, fmt.Errorf("%w: %s", ErrProofCheckFailed, err)
	}

	return burn, nil
}
