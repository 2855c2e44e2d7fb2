package crosschain

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
)

// ExtendProof runs on the reference chain and takes a proof of the txid into
// its asset chain's MoM further up to the MoMoM of the notarization group
// the target chain belongs to. The returned proof is anchored on the most
// recent notarization of the target chain found by the scan.
func (p *Prover) ExtendProof(txid common.Hash, symbol string, ccid uint32, src merkle.TxProof) (merkle.TxProof, error) {
	chain, index, release, err := p.views()
	if err != nil {
		return merkle.TxProof{}, err
	}
	defer release()

	if err := src.Branch.Validate(); err != nil {
		return merkle.TxProof{}, fmt.Errorf("%w: %s", ErrMalformedProof, err)
	}

	mom := src.Branch.Exec(txid)

	p.evHandler("crosschain: ExtendProof: started: txid[%s] symbol[%s] ccid[%d] mom[%s]", txid.Hex(), symbol, ccid, mom.Hex())

	height, err := anchorHeight(chain, src.Anchor)
	if err != nil {
		return merkle.TxProof{}, err
	}

	pr, err := p.proofRoot(chain, index, symbol, ccid, height)
	if err != nil {
		return merkle.TxProof{}, err
	}

	if pr.IsNull() {
		return merkle.TxProof{}, fmt.Errorf("%w: symbol[%s] ccid[%d] height[%d]", ErrNoMomsFound, symbol, ccid, height)
	}

	pos := -1
	for i, h := range pr.MoMs {
		if h == mom {
			pos = i
			break
		}
	}

	if pos == -1 {
		return merkle.TxProof{}, fmt.Errorf("%w: mom[%s] moms[%d]", ErrMomNotInWindow, mom.Hex(), len(pr.MoMs))
	}

	tree, err := merkle.NewTree(pr.MoMs)
	if err != nil {
		return merkle.TxProof{}, fmt.Errorf("moms tree: %w", err)
	}

	momBranch, err := tree.Branch(pos)
	if err != nil {
		return merkle.TxProof{}, fmt.Errorf("%w: %s", ErrProofCheckFailed, err)
	}

	composed, err := src.Branch.Extend(momBranch)
	if err != nil {
		return merkle.TxProof{}, fmt.Errorf("%w: %s", ErrProofCheckFailed, err)
	}

	if composed.Exec(txid) != pr.MoMoM {
		return merkle.TxProof{}, fmt.Errorf("%w: txid[%s] momom[%s]", ErrProofCheckFailed, txid.Hex(), pr.MoMoM.Hex())
	}

	p.evHandler("crosschain: ExtendProof: completed: txid[%s] anchor[%s] momom[%s] index[%d] depth[%d]", txid.Hex(), pr.AnchorTxid.Hex(), pr.MoMoM.Hex(), composed.Index, composed.Depth())

	return merkle.TxProof{Anchor: pr.AnchorTxid, Branch: composed}, nil
}

// anchorHeight resolves the reference chain height to scan from. An anchor
// that is not yet confirmed scans from the tip.
func anchorHeight(chain ChainView, anchor common.Hash) (uint64, error) {
	loc, err := chain.LookupTx(anchor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("%w: anchor[%s]", ErrAnchorNotFound, anchor.Hex())
		}
		return 0, fmt.Errorf("lookup anchor: %w", err)
	}

	if !loc.Confirmed {
		return chain.TipHeight(), nil
	}

	return loc.Height, nil
}
