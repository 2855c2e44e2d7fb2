package public

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/chainrelay/business/web/errs"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/importcoin"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type proof struct {
	Txid   common.Hash   `json:"txid"`
	Proof  string        `json:"proof"`
	Anchor common.Hash   `json:"anchor"`
	Branch merkle.Branch `json:"branch"`
}

func toProof(txid common.Hash, p merkle.TxProof) (proof, error) {
	hx, err := p.Hex()
	if err != nil {
		return proof{}, err
	}

	pr := proof{
		Txid:   txid,
		Proof:  hx,
		Anchor: p.Anchor,
		Branch: p.Branch,
	}

	return pr, nil
}

type extendRequest struct {
	Txid   string `json:"txid" validate:"required"`
	Symbol string `json:"symbol" validate:"required,max=64"`
	CCID   uint32 `json:"ccid"`
	Proof  string `json:"proof" validate:"required"`
}

type proofRoot struct {
	Null       bool          `json:"null"`
	MoMoM      common.Hash   `json:"momom"`
	MoMs       []common.Hash `json:"moms"`
	AnchorTxid common.Hash   `json:"anchor_txid"`
}

func toProofRoot(pr crosschain.ProofRoot) proofRoot {
	return proofRoot{
		Null:       pr.IsNull(),
		MoMoM:      pr.MoMoM,
		MoMs:       pr.MoMs,
		AnchorTxid: pr.AnchorTxid,
	}
}

type importRequest struct {
	Tx string `json:"tx" validate:"required"`
}

type verifyRequest struct {
	Tx     string `json:"tx" validate:"required"`
	Symbol string `json:"symbol" validate:"max=64"`
	CCID   uint32 `json:"ccid"`
	MoMoM  string `json:"momom" validate:"required"`
}

type importTx struct {
	Txid common.Hash   `json:"txid"`
	Tx   string        `json:"tx"`
	Data importcoin.Tx `json:"data"`
}

func toImportTx(tx importcoin.Tx) (importTx, error) {
	txid, err := tx.Hash()
	if err != nil {
		return importTx{}, err
	}

	hx, err := tx.Hex()
	if err != nil {
		return importTx{}, err
	}

	it := importTx{
		Txid: txid,
		Tx:   hx,
		Data: tx,
	}

	return it, nil
}

type verified struct {
	Valid bool                `json:"valid"`
	Burn  importcoin.BurnData `json:"burn"`
}

// =============================================================================

// toHash parses a hex encoded 32 byte hash from a request.
func toHash(field string, s string) (common.Hash, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, errs.NewTrusted(fmt.Errorf("%s: %w", field, err), http.StatusBadRequest)
	}

	if len(data) != common.HashLength {
		return common.Hash{}, errs.NewTrusted(fmt.Errorf("%s: expected %d bytes, got %d", field, common.HashLength, len(data)), http.StatusBadRequest)
	}

	return common.BytesToHash(data), nil
}

// toTx parses a hex encoded transaction from a request.
func toTx(s string) (importcoin.Tx, error) {
	tx, err := importcoin.FromHex(s)
	if err != nil {
		if errors.Is(err, importcoin.ErrMalformedTx) {
			return importcoin.Tx{}, fmt.Errorf("%w: %s", crosschain.ErrMalformedImportTransaction, err)
		}
		return importcoin.Tx{}, errs.NewTrusted(err, http.StatusBadRequest)
	}

	return tx, nil
}

func importParams(req verifyRequest) crosschain.ImportParams {
	return crosschain.ImportParams{
		Symbol: req.Symbol,
		CCID:   req.CCID,
	}
}
