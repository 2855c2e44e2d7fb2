package merkle_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
)

func Test_ExtendComposition(t *testing.T) {
	type table struct {
		name      string
		lowerSize int
		upperSize int
		position  int
	}

	tt := []table{
		{name: "single-single", lowerSize: 1, upperSize: 1, position: 0},
		{name: "pair-odd", lowerSize: 2, upperSize: 3, position: 2},
		{name: "odd-pair", lowerSize: 5, upperSize: 2, position: 1},
		{name: "wide", lowerSize: 9, upperSize: 7, position: 4},
	}

	t.Log("Given the need to compose branches through an additional level.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				lowerLeaves := leaves(tst.lowerSize)
				lower, err := merkle.NewTree(lowerLeaves)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould construct the lower tree: %v", failed, testID, err)
				}

				// The root of the lower tree is a leaf of the upper tree.
				upperLeaves := leaves(tst.upperSize + 100)[:tst.upperSize]
				upperLeaves[tst.position] = lower.Root()
				upper, err := merkle.NewTree(upperLeaves)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould construct the upper tree: %v", failed, testID, err)
				}

				y, err := upper.Branch(tst.position)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould get the upper branch: %v", failed, testID, err)
				}

				for i, l := range lowerLeaves {
					x, err := lower.Branch(i)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould get the lower branch: %v", failed, testID, err)
					}

					if x.Exec(l) != lower.Root() || y.Exec(lower.Root()) != upper.Root() {
						t.Fatalf("\t%s\tTest %d:\tShould have valid parts before composing.", failed, testID)
					}

					composed, err := x.Extend(y)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould compose the branches: %v", failed, testID, err)
					}

					exp := (y.Index << uint(len(x.Siblings))) + x.Index
					if composed.Index != exp {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, composed.Index)
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, exp)
						t.Fatalf("\t%s\tTest %d:\tShould shift and add the indexes.", failed, testID)
					}

					if len(composed.Siblings) != len(x.Siblings)+len(y.Siblings) {
						t.Fatalf("\t%s\tTest %d:\tShould concatenate the siblings.", failed, testID)
					}

					if err := composed.Verify(l, upper.Root()); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould verify the leaf to the upper root: %v", failed, testID, err)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould verify every lower leaf to the upper root.", success, testID)

				x, _ := lower.Branch(0)
				composed, err := merkle.Compose(x, y)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould compose with the helper: %v", failed, testID, err)
				}
				if composed.Exec(lowerLeaves[0]) != upper.Root() {
					t.Fatalf("\t%s\tTest %d:\tShould verify the helper composition.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould compose with the helper.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_ExtendRejectsBadIndex(t *testing.T) {
	x := merkle.Branch{Index: 4, Siblings: []common.Hash{leaf("a"), leaf("b")}}
	y := merkle.Branch{Index: 1, Siblings: []common.Hash{leaf("c")}}

	if _, err := x.Extend(y); !errors.Is(err, merkle.ErrIndexOutOfRange) {
		t.Fatalf("\t%s\tShould reject an index with bits beyond its depth: %v", failed, err)
	}
	t.Logf("\t%s\tShould reject an index with bits beyond its depth.", success)

	deep := merkle.Branch{Siblings: make([]common.Hash, 40)}
	if _, err := deep.Extend(merkle.Branch{Siblings: make([]common.Hash, 30)}); !errors.Is(err, merkle.ErrBranchTooLong) {
		t.Fatalf("\t%s\tShould reject a composition deeper than 64 levels: %v", failed, err)
	}
	t.Logf("\t%s\tShould reject a composition deeper than 64 levels.", success)
}

func Test_VerifyIdempotent(t *testing.T) {
	tree, err := merkle.NewTree(leaves(6))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	branch, err := tree.Branch(3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := branch.Siblings[0]
	l := tree.Leaves()[3]
	for i := 0; i < 5; i++ {
		if err := branch.Verify(l, tree.Root()); err != nil {
			t.Fatalf("\t%s\tRun %d:\tShould verify: %v", failed, i, err)
		}
	}

	if branch.Index != 3 || branch.Siblings[0] != before {
		t.Fatalf("\t%s\tShould not mutate the branch while verifying.", failed)
	}
	t.Logf("\t%s\tShould verify repeatedly without side effects.", success)

	if err := branch.Verify(leaf("forged"), tree.Root()); !errors.Is(err, merkle.ErrRootMismatch) {
		t.Fatalf("\t%s\tShould fail for a forged leaf: %v", failed, err)
	}
	t.Logf("\t%s\tShould fail for a forged leaf.", success)
}

// =============================================================================

func Test_VarIntLayout(t *testing.T) {
	tt := []struct {
		index uint64
		exp   []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x00}},
		{255, []byte{0x80, 0x7F}},
		{256, []byte{0x81, 0x00}},
		{16383, []byte{0xFE, 0x7F}},
		{16384, []byte{0xFF, 0x00}},
		{16511, []byte{0xFF, 0x7F}},
		{65535, []byte{0x82, 0xFE, 0x7F}},
		{1 << 32, []byte{0x8E, 0xFE, 0xFE, 0xFF, 0x00}},
	}

	for _, tst := range tt {
		b := merkle.Branch{Index: tst.index}

		data, err := b.MarshalBinary()
		if err != nil {
			t.Fatalf("index %d: unexpected error: %v", tst.index, err)
		}

		exp := append(append([]byte{}, tst.exp...), 0x00)
		if !bytes.Equal(data, exp) {
			t.Fatalf("index %d: got %x, exp %x", tst.index, data, exp)
		}

		var got merkle.Branch
		if err := got.UnmarshalBinary(data); err != nil {
			t.Fatalf("index %d: unexpected decode error: %v", tst.index, err)
		}
		if got.Index != tst.index {
			t.Fatalf("index %d: decoded %d", tst.index, got.Index)
		}
	}
}

func Test_TxProofLayout(t *testing.T) {
	anchor := leaf("anchor")
	s1 := leaf("s1")
	s2 := leaf("s2")

	proof := merkle.TxProof{
		Anchor: anchor,
		Branch: merkle.Branch{Index: 2, Siblings: []common.Hash{s1, s2}},
	}

	data, err := proof.MarshalBinary()
	if err != nil {
		t.Fatalf("\t%s\tShould encode the proof: %v", failed, err)
	}

	var exp []byte
	exp = append(exp, anchor.Bytes()...)
	exp = append(exp, 0x02, 0x02)
	exp = append(exp, s1.Bytes()...)
	exp = append(exp, s2.Bytes()...)
	if !bytes.Equal(data, exp) {
		t.Fatalf("\t%s\tShould produce the fixed layout:\ngot %x\nexp %x", failed, data, exp)
	}
	t.Logf("\t%s\tShould produce the fixed layout.", success)

	h, err := proof.Hex()
	if err != nil {
		t.Fatalf("\t%s\tShould hex encode the proof: %v", failed, err)
	}

	back, err := merkle.TxProofFromHex(h)
	if err != nil {
		t.Fatalf("\t%s\tShould decode the proof: %v", failed, err)
	}
	if back.Anchor != anchor || back.Branch.Index != 2 || len(back.Branch.Siblings) != 2 || back.Branch.Siblings[1] != s2 {
		t.Fatalf("\t%s\tShould decode the same proof.", failed)
	}
	t.Logf("\t%s\tShould decode the same proof.", success)

	var p merkle.TxProof
	if err := p.UnmarshalBinary(append(data, 0x00)); !errors.Is(err, merkle.ErrTrailingBytes) {
		t.Fatalf("\t%s\tShould reject trailing bytes: %v", failed, err)
	}
	t.Logf("\t%s\tShould reject trailing bytes.", success)

	if err := p.UnmarshalBinary(data[:40]); err == nil {
		t.Fatalf("\t%s\tShould reject a truncated proof.", failed)
	}
	t.Logf("\t%s\tShould reject a truncated proof.", success)

	var b merkle.Branch
	if err := b.UnmarshalBinary([]byte{0x00, 0xFD, 0x01, 0x00}); !errors.Is(err, merkle.ErrNonCanonicalSize) {
		t.Fatalf("\t%s\tShould reject a non-canonical sibling count: %v", failed, err)
	}
	t.Logf("\t%s\tShould reject a non-canonical sibling count.", success)

	if err := b.UnmarshalBinary([]byte{0x00, 0x41}); !errors.Is(err, merkle.ErrTooManySiblings) {
		t.Fatalf("\t%s\tShould reject more than 64 siblings: %v", failed, err)
	}
	t.Logf("\t%s\tShould reject more than 64 siblings.", success)
}
