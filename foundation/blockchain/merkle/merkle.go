// Package merkle provides an implementation of a merkle tree over raw hash
// sequences along with the branches that prove a leaf belongs under a root.
// The tree follows the Bitcoin construction: interior nodes are the double
// SHA-256 of the left and right child and an odd node at any level is paired
// with itself.
package merkle

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrEmptyTree is returned when a tree is constructed with no leaves.
var ErrEmptyTree = errors.New("cannot construct tree with no content")

// HashFunc produces the hash of the concatenation of the specified data.
type HashFunc func(data ...[]byte) common.Hash

// DoubleSHA256 is the default hash strategy for the tree and for branches.
func DoubleSHA256(data ...[]byte) common.Hash {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	first := h.Sum(nil)

	return common.Hash(sha256.Sum256(first))
}

// HashBytes returns the double SHA-256 of the data. This is how raw
// transaction bytes are turned into a txid.
func HashBytes(data []byte) common.Hash {
	return DoubleSHA256(data)
}

// Hashable represents the behavior concrete data must exhibit to be used as
// a leaf in the merkle tree.
type Hashable interface {
	Hash() (common.Hash, error)
}

// Hashes converts a set of values into the leaf hashes for a tree, keeping
// the order of the values.
func Hashes[T Hashable](values []T) ([]common.Hash, error) {
	leaves := make([]common.Hash, len(values))
	for i, value := range values {
		h, err := value.Hash()
		if err != nil {
			return nil, fmt.Errorf("hashing value %d: %w", i, err)
		}
		leaves[i] = h
	}

	return leaves, nil
}

// =============================================================================

// Tree represents a merkle tree built from an ordered set of leaf hashes. The
// order of the leaves is load bearing since it determines each leaf's index.
type Tree struct {
	levels   [][]common.Hash
	hashFunc HashFunc
}

// WithHashFunc is used to change the default hash strategy of using double
// sha256 when constructing a new tree.
func WithHashFunc(hashFunc HashFunc) func(t *Tree) {
	return func(t *Tree) {
		t.hashFunc = hashFunc
	}
}

// NewTree constructs a new merkle tree from the specified leaf hashes.
func NewTree(leaves []common.Hash, options ...func(t *Tree)) (*Tree, error) {
	t := Tree{
		hashFunc: DoubleSHA256,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(leaves); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the levels of the tree from the specified leaves. If
// the tree has been generated previously, the tree is re-generated from
// scratch.
func (t *Tree) Generate(leaves []common.Hash) error {
	if len(leaves) == 0 {
		return ErrEmptyTree
	}

	level := make([]common.Hash, len(leaves))
	copy(level, leaves)

	levels := [][]common.Hash{level}
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := min(i+1, len(level)-1)
			next = append(next, t.hashFunc(level[i][:], level[right][:]))
		}

		levels = append(levels, next)
		level = next
	}

	t.levels = levels

	return nil
}

// Root returns the merkle root of the tree.
func (t *Tree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// RootHex converts the merkle root hash to a hex encoded string.
func (t *Tree) RootHex() string {
	return hexutil.Encode(t.Root().Bytes())
}

// Leaves returns a copy of the leaf hashes in the tree.
func (t *Tree) Leaves() []common.Hash {
	leaves := make([]common.Hash, len(t.levels[0]))
	copy(leaves, t.levels[0])

	return leaves
}

// Len returns the number of leaves in the tree.
func (t *Tree) Len() int {
	return len(t.levels[0])
}

// Index returns the position of the first leaf matching the hash.
func (t *Tree) Index(leaf common.Hash) (int, bool) {
	for i, h := range t.levels[0] {
		if h == leaf {
			return i, true
		}
	}

	return -1, false
}

// Branch returns the branch proving the leaf at the specified index is in
// the tree. At each level the sibling is the node next to the running index,
// or the node itself when it is the odd one out.
func (t *Tree) Branch(index int) (Branch, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return Branch{}, fmt.Errorf("leaf index %d out of range, leaves %d", index, len(t.levels[0]))
	}

	siblings := make([]common.Hash, 0, len(t.levels)-1)
	i := index
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := min(i^1, len(level)-1)
		siblings = append(siblings, level[sibling])
		i >>= 1
	}

	return Branch{Index: uint64(index), Siblings: siblings}, nil
}

// Verify recalculates the root from the leaves and checks it matches the
// root held by the tree.
func (t *Tree) Verify() error {
	var clone Tree
	clone.hashFunc = t.hashFunc
	if err := clone.Generate(t.levels[0]); err != nil {
		return err
	}

	if clone.Root() != t.Root() {
		return errors.New("root hash invalid")
	}

	return nil
}

// String returns a string representation of the tree. Only leaf nodes are
// included in the output.
func (t *Tree) String() string {
	s := ""
	for i, leaf := range t.levels[0] {
		s += fmt.Sprintf("%d %s\n", i, leaf.Hex())
	}

	return s
}

// =============================================================================

// Root returns the merkle root over the leaves using double sha256. The root
// of an empty set is the zero hash.
func Root(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return common.Hash{}
	}

	t, err := NewTree(leaves)
	if err != nil {
		return common.Hash{}
	}

	return t.Root()
}
