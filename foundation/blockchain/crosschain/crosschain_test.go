package crosschain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/database/storage"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/notarydb"
	"github.com/ethereum/go-ethereum/common"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_ProofRoot(t *testing.T) {
	kmd := newChain(t)

	momG3 := common.HexToHash("0x03")
	momG2 := common.HexToHash("0x02")
	momG1 := common.HexToHash("0x01")
	momD := common.HexToHash("0x0d")
	momX := common.HexToHash("0x0e")

	kmd.addNotarizations(notaData("GAMMA", 2, momG3))
	kmd.addNotarizations(notaData("GAMMA", 2, momG2))
	kmd.addNotarizations(notaData("DELTA", 2, momD), notaData("DELTA", 3, momX))
	txids := kmd.addNotarizations(notaData("GAMMA", 2, momG1))
	kmd.addBlock()

	type table struct {
		name   string
		symbol string
		ccid   uint32
		height uint64
		window uint64
		moms   []common.Hash
		anchor common.Hash
	}

	tt := []table{
		{"window boundary", "GAMMA", 2, 4, 0, []common.Hash{momG1, momD}, txids[0]},
		{"scan from above", "GAMMA", 2, 5, 0, []common.Hash{momG1, momD}, txids[0]},
		{"other chains collected", "DELTA", 2, 3, 0, []common.Hash{momD, momG2, momG3}, kmd.notaTxid(3, 0)},
		{"reaches genesis", "GAMMA", 2, 1, 0, []common.Hash{momG3}, kmd.notaTxid(1, 0)},
		{"reserved ccid", "GAMMA", 1, 4, 0, nil, common.Hash{}},
		{"above tip", "GAMMA", 2, 6, 0, nil, common.Hash{}},
		{"unknown symbol", "OMEGA", 2, 5, 0, nil, common.Hash{}},
		{"outside window", "GAMMA", 2, 3, 1, nil, common.Hash{}},
		{"inside window", "GAMMA", 2, 3, 2, []common.Hash{momG2}, kmd.notaTxid(2, 0)},
	}

	t.Log("Given the need to collect the MoMs of a notarization window.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				prover, err := crosschain.New(crosschain.Config{
					Chain:      kmd.db,
					Index:      kmd.index,
					ScanWindow: tst.window,
				})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to construct a prover: %v", failed, testID, err)
				}

				pr, err := prover.ProofRoot(tst.symbol, tst.ccid, tst.height)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to compute the proof root: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to compute the proof root.", success, testID)

				if tst.moms == nil {
					if !pr.IsNull() {
						t.Fatalf("\t%s\tTest %d:\tShould get a null root: %+v", failed, testID, pr)
					}
					t.Logf("\t%s\tTest %d:\tShould get a null root.", success, testID)
					return
				}

				if !equalHashes(pr.MoMs, tst.moms) {
					t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, pr.MoMs)
					t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.moms)
					t.Fatalf("\t%s\tTest %d:\tShould collect the MoMs in scan order.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould collect the MoMs in scan order.", success, testID)

				if pr.AnchorTxid != tst.anchor {
					t.Fatalf("\t%s\tTest %d:\tShould anchor on the most recent notarization: got %s", failed, testID, pr.AnchorTxid)
				}
				t.Logf("\t%s\tTest %d:\tShould anchor on the most recent notarization.", success, testID)

				if pr.MoMoM != merkle.Root(tst.moms) {
					t.Fatalf("\t%s\tTest %d:\tShould compute the MoMoM over the MoMs.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould compute the MoMoM over the MoMs.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_AssetChainProof(t *testing.T) {
	t.Log("Given the need to prove a transaction up to its chain's MoM.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen a checkpoint of depth 3 notarizes height 3.", testID)
		{
			alpha := newChain(t)
			alpha.addTxs(2)
			_, block2 := alpha.addTxs(3)
			alpha.addTxs(1)
			_, block4 := alpha.addTxs(1)

			ref := common.HexToHash("0xaa")
			mom := alpha.backNotarize("ALPHA", 2, ref, 3, 3)

			for i, txid := range block2 {
				proof, err := alpha.prover.AssetChainProof(txid)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to prove tx %d: %v", failed, testID, i, err)
				}

				if err := proof.Branch.Verify(txid, mom); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould verify tx %d to the MoM: %v", failed, testID, i, err)
				}

				if proof.Anchor != ref {
					t.Fatalf("\t%s\tTest %d:\tShould anchor on the reference notarization: got %s", failed, testID, proof.Anchor)
				}

				// Two tx levels and two block levels, the block sits at leaf 1.
				if proof.Branch.Depth() != 4 || proof.Branch.Index != uint64(1<<2+i) {
					t.Fatalf("\t%s\tTest %d:\tShould compose the index: got %d depth %d", failed, testID, proof.Branch.Index, proof.Branch.Depth())
				}
			}
			t.Logf("\t%s\tTest %d:\tShould prove every tx of block 2 to the MoM.", success, testID)

			_, err := alpha.prover.AssetChainProof(block4[0])
			if !errors.Is(err, crosschain.ErrNotarizationNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould fail for a block not yet notarized: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail for a block not yet notarized.", success, testID)

			_, err = alpha.prover.AssetChainProof(common.HexToHash("0x1234"))
			if !errors.Is(err, crosschain.ErrTransactionNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould fail for an unknown tx: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail for an unknown tx.", success, testID)

			pending := alpha.db.AddUnconfirmed(database.NewBlockTx([]byte("pending")))
			_, err = alpha.prover.AssetChainProof(pending)
			if !errors.Is(err, crosschain.ErrTransactionNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould fail for an unconfirmed tx: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail for an unconfirmed tx.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the checkpoint MoM does not match the chain.", testID)
		{
			alpha := newChain(t)
			_, block1 := alpha.addTxs(1)
			alpha.addTxs(1)
			alpha.backNotarizeMoM("ALPHA", 2, common.HexToHash("0xaa"), 2, 2, common.HexToHash("0xbad"))

			_, err := alpha.prover.AssetChainProof(block1[0])
			if !errors.Is(err, crosschain.ErrBlockMoMMismatch) || !errors.Is(err, crosschain.ErrProofIntegrity) {
				t.Fatalf("\t%s\tTest %d:\tShould fail the block to MoM level: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail the block to MoM level.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the checkpoint depth exceeds its notarized height.", testID)
		{
			alpha := newChain(t)
			_, block1 := alpha.addTxs(1)
			alpha.addTxs(1)
			alpha.backNotarizeMoM("ALPHA", 2, common.HexToHash("0xaa"), 2, 5, common.HexToHash("0xbad"))

			_, err := alpha.prover.AssetChainProof(block1[0])
			if !errors.Is(err, crosschain.ErrBlockMoMMismatch) || errors.Is(err, crosschain.ErrNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould report a malformed checkpoint as an integrity failure: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report a malformed checkpoint as an integrity failure.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the block body is missing from the view.", testID)
		{
			alpha := newChain(t)
			_, block1 := alpha.addTxs(2)
			alpha.backNotarize("ALPHA", 2, common.HexToHash("0xaa"), 1, 1)

			prover := alpha.proverWith(missingTxsSource{alpha.db})

			_, err := prover.AssetChainProof(block1[0])
			if !errors.Is(err, crosschain.ErrBlockNotFound) || errors.Is(err, crosschain.ErrDataUnavailable) {
				t.Fatalf("\t%s\tTest %d:\tShould report the block as not found: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the block as not found.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the block data has been pruned.", testID)
		{
			alpha := newChain(t)
			_, block1 := alpha.addTxs(2)
			alpha.addTxs(1)
			alpha.backNotarize("ALPHA", 2, common.HexToHash("0xaa"), 2, 2)

			if err := alpha.db.Prune(2); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to prune: %v", failed, testID, err)
			}

			_, err := alpha.prover.AssetChainProof(block1[1])
			if !errors.Is(err, crosschain.ErrBlockDataUnavailable) {
				t.Fatalf("\t%s\tTest %d:\tShould report the block data as unavailable: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the block data as unavailable.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the block does not list the transaction.", testID)
		{
			alpha := newChain(t)
			_, block1 := alpha.addTxs(2)
			alpha.backNotarize("ALPHA", 2, common.HexToHash("0xaa"), 1, 1)

			prover := alpha.proverWith(dropTxsSource{alpha.db})

			_, err := prover.AssetChainProof(block1[0])
			if !errors.Is(err, crosschain.ErrTransactionNotInBlock) {
				t.Fatalf("\t%s\tTest %d:\tShould fail to locate the tx in the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail to locate the tx in the block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the chain reorganizes while the proof is built.", testID)
		{
			alpha := newChain(t)
			alpha.addTxs(1)
			_, block2 := alpha.addTxs(1)
			alpha.addTxs(1)
			alpha.backNotarize("ALPHA", 2, common.HexToHash("0xaa"), 3, 3)

			prover := alpha.proverWith(reorgSource{db: alpha.db, height: 2})

			_, err := prover.AssetChainProof(block2[0])
			if !errors.Is(err, crosschain.ErrStaleView) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a proof across a reorg: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a proof across a reorg.", success, testID)
		}
	}
}

func Test_ExtendProof(t *testing.T) {
	t.Log("Given the need to extend an asset chain proof to the MoMoM.")
	{
		r := newRelay(t)

		testID := 0
		t.Logf("\tTest %d:\tWhen both chains notarized within the window.", testID)
		{
			proof, err := r.alpha.prover.AssetChainProof(r.txid)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the asset chain proof: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to build the asset chain proof.", success, testID)

			ext, err := r.kmd.prover.ExtendProof(r.txid, "BETA", 2, proof)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to extend the proof: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to extend the proof.", success, testID)

			momom := merkle.Root([]common.Hash{r.momB, r.momA})
			if err := ext.Branch.Verify(r.txid, momom); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould verify to the MoMoM: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould verify to the MoMoM.", success, testID)

			if ext.Anchor != r.anchorB {
				t.Fatalf("\t%s\tTest %d:\tShould anchor on the target chain notarization: got %s", failed, testID, ext.Anchor)
			}
			t.Logf("\t%s\tTest %d:\tShould anchor on the target chain notarization.", success, testID)

			exp := (uint64(1) << proof.Branch.Depth()) + proof.Branch.Index
			if ext.Branch.Index != exp || ext.Branch.Depth() != proof.Branch.Depth()+1 {
				t.Fatalf("\t%s\tTest %d:\tShould compose the index: got %d, exp %d", failed, testID, ext.Branch.Index, exp)
			}
			t.Logf("\t%s\tTest %d:\tShould compose the index.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the proof evaluates to a forged MoM.", testID)
		{
			forged := merkle.TxProof{
				Anchor: r.anchorA,
				Branch: merkle.Branch{Index: 1, Siblings: []common.Hash{common.HexToHash("0xf0")}},
			}

			_, err := r.kmd.prover.ExtendProof(r.txid, "BETA", 2, forged)
			if !errors.Is(err, crosschain.ErrMomNotInWindow) || !errors.Is(err, crosschain.ErrWindowMismatch) {
				t.Fatalf("\t%s\tTest %d:\tShould fail with MoM not in window: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail with MoM not in window.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the anchor or the target is unknown.", testID)
		{
			proof, err := r.alpha.prover.AssetChainProof(r.txid)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to build the asset chain proof: %v", failed, testID, err)
			}

			_, err = r.kmd.prover.ExtendProof(r.txid, "OMEGA", 2, proof)
			if !errors.Is(err, crosschain.ErrNoMomsFound) {
				t.Fatalf("\t%s\tTest %d:\tShould fail with no MoMs found: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail with no MoMs found.", success, testID)

			proof.Anchor = common.HexToHash("0x5555")
			_, err = r.kmd.prover.ExtendProof(r.txid, "BETA", 2, proof)
			if !errors.Is(err, crosschain.ErrAnchorNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould fail with anchor not found: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould fail with anchor not found.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the anchor is not yet confirmed.", testID)
		{
			txid := common.HexToHash("0x77")
			src := merkle.TxProof{
				Anchor: database.NewBlockTx([]byte("anchor-a")).TxID(),
				Branch: merkle.Branch{Index: 0, Siblings: []common.Hash{common.HexToHash("0x78")}},
			}
			momA := src.Branch.Exec(txid)

			kmd := newChain(t)
			kmd.addNotarizations(notaData("BETA", 2, common.HexToHash("0xb0")))

			// The record carrying A's MoM is indexed under a different tx.
			kmd.addNotarizations(notaData("ALPHA", 2, momA))
			anchorB := kmd.addNotarizations(notaData("BETA", 2, common.HexToHash("0xb1")))[0]
			kmd.db.AddUnconfirmed(database.NewBlockTx([]byte("anchor-a")))

			ext, err := kmd.prover.ExtendProof(txid, "BETA", 2, src)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould scan from the tip: %v", failed, testID, err)
			}

			momom := merkle.Root([]common.Hash{common.HexToHash("0xb1"), momA})
			if ext.Anchor != anchorB || ext.Branch.Exec(txid) != momom {
				t.Fatalf("\t%s\tTest %d:\tShould extend to the window at the tip.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould extend to the window at the tip.", success, testID)
		}
	}
}

func Test_NextBackNotarization(t *testing.T) {
	t.Log("Given the need to walk forward along the back notarizations.")
	{
		alpha := newChain(t)
		for range 9 {
			alpha.addTxs(1)
		}

		refs := []common.Hash{common.HexToHash("0xa0"), common.HexToHash("0xa1"), common.HexToHash("0xa2")}
		alpha.backNotarize("ALPHA", 2, refs[0], 3, 3)
		alpha.backNotarize("ALPHA", 2, refs[1], 6, 3)
		alpha.backNotarize("ALPHA", 2, refs[2], 9, 3)

		for i := range 2 {
			bn, err := alpha.prover.NextBackNotarization(refs[i])
			if err != nil {
				t.Fatalf("\t%s\tShould find the back notarization after %d: %v", failed, i, err)
			}

			if bn.Data.DestTxid != refs[i+1] || bn.Data.Height != uint64(3*(i+2)) {
				t.Fatalf("\t%s\tShould find the next checkpoint after %d: got %+v", failed, i, bn.Data)
			}
		}
		t.Logf("\t%s\tShould walk forward one checkpoint at a time.", success)

		_, err := alpha.prover.NextBackNotarization(refs[2])
		if !errors.Is(err, crosschain.ErrNoFurtherNotarization) {
			t.Fatalf("\t%s\tShould stop at the last checkpoint: %v", failed, err)
		}
		t.Logf("\t%s\tShould stop at the last checkpoint.", success)

		_, err = alpha.prover.NextBackNotarization(common.HexToHash("0xff"))
		if !errors.Is(err, crosschain.ErrBackNotarizationNotFound) {
			t.Fatalf("\t%s\tShould fail for an unknown reference txid: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail for an unknown reference txid.", success)
	}
}

// =============================================================================

// chain is a blockchain with its notarization index and a prover over both.
type chain struct {
	t      *testing.T
	db     *database.Database
	index  *notarydb.DB
	prover *crosschain.Prover
	n      int
}

func newChain(t *testing.T) *chain {
	t.Helper()

	db, err := database.New(storage.NewMemory(), nil)
	if err != nil {
		t.Fatalf("Should be able to open the database: %v", err)
	}

	index, err := notarydb.Open("", nil)
	if err != nil {
		t.Fatalf("Should be able to open the notarization index: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	c := chain{t: t, db: db, index: index}
	c.prover = c.proverWith(db)

	return &c
}

func (c *chain) proverWith(src crosschain.ChainSource) *crosschain.Prover {
	c.t.Helper()

	prover, err := crosschain.New(crosschain.Config{Chain: src, Index: c.index})
	if err != nil {
		c.t.Fatalf("Should be able to construct a prover: %v", err)
	}

	return prover
}

// addBlock adds a block holding the transactions, or a single filler
// transaction when none are given.
func (c *chain) addBlock(trans ...database.BlockTx) database.BlockHeader {
	c.t.Helper()

	if len(trans) == 0 {
		c.n++
		trans = []database.BlockTx{database.NewBlockTx(fmt.Appendf(nil, "filler-%d", c.n))}
	}

	block, err := database.NewBlock(c.db.LatestBlock(), time.Now(), trans)
	if err != nil {
		c.t.Fatalf("Should be able to construct a block: %v", err)
	}

	if err := c.db.AddBlock(block); err != nil {
		c.t.Fatalf("Should be able to add block %d: %v", block.Header.Number, err)
	}

	return block.Header
}

// addTxs adds a block of n unique transactions.
func (c *chain) addTxs(n int) (database.BlockHeader, []common.Hash) {
	trans := make([]database.BlockTx, n)
	txids := make([]common.Hash, n)
	for i := range trans {
		c.n++
		trans[i] = database.NewBlockTx(fmt.Appendf(nil, "tx-%d", c.n))
		txids[i] = trans[i].TxID()
	}

	return c.addBlock(trans...), txids
}

// addNotarizations adds a block carrying one notarization transaction per
// record and indexes the records under it.
func (c *chain) addNotarizations(datas ...crosschain.NotarizationData) []common.Hash {
	c.t.Helper()

	trans := make([]database.BlockTx, len(datas))
	notas := make([]crosschain.Notarization, len(datas))
	txids := make([]common.Hash, len(datas))
	for i, data := range datas {
		c.n++
		trans[i] = database.NewBlockTx(fmt.Appendf(nil, "nota-%s-%d", data.Symbol, c.n))
		txids[i] = trans[i].TxID()
		notas[i] = crosschain.Notarization{Txid: txids[i], Data: data}
	}

	header := c.addBlock(trans...)
	if err := c.index.AddNotarizations(header.Hash(), notas); err != nil {
		c.t.Fatalf("Should be able to index notarizations: %v", err)
	}

	return txids
}

// notaTxid returns the txid of the notarization at the position in the
// block at the height.
func (c *chain) notaTxid(height uint64, pos int) common.Hash {
	c.t.Helper()

	block, err := c.db.GetBlock(height)
	if err != nil {
		c.t.Fatalf("Should be able to read block %d: %v", height, err)
	}

	return block.Trans[pos].TxID()
}

// mom computes the MoM over the depth block roots ending at the height.
func (c *chain) mom(height uint64, depth uint32) common.Hash {
	c.t.Helper()

	roots := make([]common.Hash, depth)
	for i := range roots {
		block, err := c.db.GetBlock(height - uint64(i))
		if err != nil {
			c.t.Fatalf("Should be able to read block %d: %v", height-uint64(i), err)
		}
		roots[i] = block.Header.MerkleRoot
	}

	return merkle.Root(roots)
}

// backNotarize records the back notarization of the reference txid for the
// height with the MoM of the chain.
func (c *chain) backNotarize(symbol string, ccid uint32, ref common.Hash, height uint64, depth uint32) common.Hash {
	mom := c.mom(height, depth)
	c.backNotarizeMoM(symbol, ccid, ref, height, depth, mom)

	return mom
}

func (c *chain) backNotarizeMoM(symbol string, ccid uint32, ref common.Hash, height uint64, depth uint32, mom common.Hash) {
	c.t.Helper()

	block, err := c.db.GetBlock(height)
	if err != nil {
		c.t.Fatalf("Should be able to read block %d: %v", height, err)
	}

	bn := crosschain.Notarization{
		Txid: merkle.HashBytes(append([]byte("bn-"), ref.Bytes()...)),
		Data: crosschain.NotarizationData{
			Symbol:    symbol,
			CCID:      ccid,
			Height:    height,
			BlockHash: block.Hash(),
			MoM:       mom,
			MoMDepth:  depth,
			DestTxid:  ref,
		},
	}

	if _, err := c.index.AddBackNotarization(bn); err != nil {
		c.t.Fatalf("Should be able to add the back notarization: %v", err)
	}
}

// =============================================================================

// relay is an asset chain ALPHA and a reference chain where ALPHA and BETA
// notarize in the same group.
type relay struct {
	alpha   *chain
	kmd     *chain
	txid    common.Hash // Transaction on ALPHA being proven.
	momA    common.Hash
	momB    common.Hash
	anchorA common.Hash
	anchorB common.Hash
}

func newRelay(t *testing.T) relay {
	return newRelayWith(t, database.NewBlockTx([]byte("transfer")))
}

// newRelayWith places the transaction in block 2 of ALPHA.
func newRelayWith(t *testing.T, tx database.BlockTx) relay {
	t.Helper()

	alpha := newChain(t)
	alpha.addTxs(1)
	alpha.addBlock(database.NewBlockTx([]byte("before")), tx, database.NewBlockTx([]byte("after")))
	alpha.addTxs(2)
	momA := alpha.mom(3, 3)

	kmd := newChain(t)
	momB := common.HexToHash("0xb1")
	kmd.addNotarizations(notaData("BETA", 2, common.HexToHash("0xb0")))
	kmd.addBlock()
	anchors := kmd.addNotarizations(notaData("BETA", 2, momB), notaData("ALPHA", 2, momA))
	kmd.addBlock()

	alpha.backNotarize("ALPHA", 2, anchors[1], 3, 3)

	r := relay{
		alpha:   alpha,
		kmd:     kmd,
		txid:    tx.TxID(),
		momA:    momA,
		momB:    momB,
		anchorA: anchors[1],
		anchorB: anchors[0],
	}

	return r
}

func notaData(symbol string, ccid uint32, mom common.Hash) crosschain.NotarizationData {
	return crosschain.NotarizationData{
		Symbol:   symbol,
		CCID:     ccid,
		MoM:      mom,
		MoMDepth: 1,
	}
}

func equalHashes(a, b []common.Hash) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// =============================================================================

// dropTxsSource serves views whose blocks never list the requested
// transaction.
type dropTxsSource struct {
	db *database.Database
}

func (s dropTxsSource) View() (crosschain.ChainView, error) {
	v, err := s.db.View()
	if err != nil {
		return nil, err
	}

	return dropTxsView{ChainView: v}, nil
}

type dropTxsView struct {
	crosschain.ChainView
}

func (dropTxsView) BlockTxHashes(common.Hash) ([]common.Hash, error) {
	return []common.Hash{common.HexToHash("0x01")}, nil
}

// missingTxsSource serves views that no longer hold any block body.
type missingTxsSource struct {
	db *database.Database
}

func (s missingTxsSource) View() (crosschain.ChainView, error) {
	v, err := s.db.View()
	if err != nil {
		return nil, err
	}

	return missingTxsView{ChainView: v}, nil
}

type missingTxsView struct {
	crosschain.ChainView
}

func (missingTxsView) BlockTxHashes(hash common.Hash) ([]common.Hash, error) {
	return nil, fmt.Errorf("%w: block[%s]", crosschain.ErrNotFound, hash.Hex())
}

// reorgSource serves views that reorganize the chain on the first block
// lookup.
type reorgSource struct {
	db     *database.Database
	height uint64
}

func (s reorgSource) View() (crosschain.ChainView, error) {
	v, err := s.db.View()
	if err != nil {
		return nil, err
	}

	return &reorgView{ChainView: v, source: s}, nil
}

type reorgView struct {
	crosschain.ChainView
	source reorgSource
	done   bool
}

func (v *reorgView) BlockByHash(hash common.Hash) (crosschain.BlockHeader, error) {
	if !v.done {
		v.done = true
		if err := v.source.db.Truncate(v.source.height); err != nil {
			return crosschain.BlockHeader{}, err
		}
	}

	return v.ChainView.BlockByHash(hash)
}
