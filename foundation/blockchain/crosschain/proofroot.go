package crosschain

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
)

// scanState tracks where a backward scan is relative to the notarizations
// of the chain being searched for.
type scanState int

const (
	searching  scanState = iota // No notarization of the chain seen yet.
	collecting                  // Most recent notarization seen, MoMs are being collected.
	bounded                     // Prior notarization seen, the window is closed.
)

// ProofRoot scans the reference chain backward from the height and collects
// the MoMs of the notarization group between the most recent notarization
// of the symbol and the one before it. A null root is returned when the ccid
// is reserved, the height is beyond the tip, or no notarization of the
// symbol exists within the scan window.
func (p *Prover) ProofRoot(symbol string, ccid uint32, height uint64) (ProofRoot, error) {
	chain, index, release, err := p.views()
	if err != nil {
		return ProofRoot{}, err
	}
	defer release()

	return p.proofRoot(chain, index, symbol, ccid, height)
}

func (p *Prover) proofRoot(chain ChainView, index NotarizationIndex, symbol string, ccid uint32, height uint64) (ProofRoot, error) {
	if ccid <= 1 {
		return ProofRoot{}, nil
	}

	if height > chain.TipHeight() {
		return ProofRoot{}, nil
	}

	p.evHandler("crosschain: ProofRoot: scan: symbol[%s] ccid[%d] height[%d] window[%d]", symbol, ccid, height, p.scanWindow)

	var pr ProofRoot
	state := searching

	for i := uint64(0); i < p.scanWindow && i <= height && state != bounded; i++ {
		header, err := chain.BlockByHeight(height - i)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return ProofRoot{}, fmt.Errorf("block at height %d: %w", height-i, err)
		}

		notarizations, err := index.NotarizationsInBlock(header.Hash)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return ProofRoot{}, fmt.Errorf("notarizations in block %s: %w", header.Hash.Hex(), err)
		}

		for _, nota := range notarizations {
			if nota.Data.CCID != ccid {
				continue
			}

			if nota.Data.Symbol == symbol {
				switch state {
				case searching:
					state = collecting
					pr.AnchorTxid = nota.Txid
					p.evHandler("crosschain: ProofRoot: window opened: height[%d] txid[%s]", header.Height, nota.Txid.Hex())

				case collecting:
					state = bounded
					p.evHandler("crosschain: ProofRoot: window closed: height[%d] txid[%s]", header.Height, nota.Txid.Hex())
				}
			}

			if state == bounded {
				break
			}

			if state == collecting {
				pr.MoMs = append(pr.MoMs, nota.Data.MoM)
			}
		}
	}

	if pr.IsNull() {
		p.evHandler("crosschain: ProofRoot: no notarization of symbol[%s] within window", symbol)
		return ProofRoot{}, nil
	}

	pr.MoMoM = merkle.Root(pr.MoMs)

	p.evHandler("crosschain: ProofRoot: moms[%d] momom[%s]", len(pr.MoMs), pr.MoMoM.Hex())

	return pr, nil
}
