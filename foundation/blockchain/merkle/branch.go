package merkle

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
)

// MaxBranchLength is the deepest branch that can be represented. The leaf
// index is a 64 bit value with one bit consumed per level.
const MaxBranchLength = 64

// Set of errors returned by branch composition and verification.
var (
	ErrIndexOutOfRange = errors.New("branch index has bits beyond its depth")
	ErrBranchTooLong   = errors.New("branch exceeds maximum depth")
	ErrRootMismatch    = errors.New("branch does not reduce to the expected root")
)

// Branch proves a leaf belongs under a root. The bits of the index, lowest
// first, choose the concatenation order at each level: a set bit means the
// sibling is on the left.
type Branch struct {
	Index    uint64        `json:"index"`
	Siblings []common.Hash `json:"siblings"`
}

// Exec applies the branch to the leaf using double sha256 and returns the
// resulting root.
func (b Branch) Exec(leaf common.Hash) common.Hash {
	return b.ExecWith(DoubleSHA256, leaf)
}

// ExecWith applies the branch to the leaf using the specified hash function.
func (b Branch) ExecWith(hashFunc HashFunc, leaf common.Hash) common.Hash {
	hash := leaf
	index := b.Index
	for _, sibling := range b.Siblings {
		if index&1 == 1 {
			hash = hashFunc(sibling[:], hash[:])
		} else {
			hash = hashFunc(hash[:], sibling[:])
		}
		index >>= 1
	}

	return hash
}

// Verify checks the branch reduces the leaf to the expected root.
func (b Branch) Verify(leaf common.Hash, root common.Hash) error {
	if got := b.Exec(leaf); got != root {
		return fmt.Errorf("%w: got %s, exp %s", ErrRootMismatch, got.Hex(), root.Hex())
	}

	return nil
}

// Depth returns the number of levels the branch climbs.
func (b Branch) Depth() int {
	return len(b.Siblings)
}

// Validate checks the index only uses the bits the siblings consume.
func (b Branch) Validate() error {
	if len(b.Siblings) > MaxBranchLength {
		return fmt.Errorf("%w: depth %d", ErrBranchTooLong, len(b.Siblings))
	}

	if len(b.Siblings) < MaxBranchLength && b.Index>>uint(len(b.Siblings)) != 0 {
		return fmt.Errorf("%w: index %d, depth %d", ErrIndexOutOfRange, b.Index, len(b.Siblings))
	}

	return nil
}

// Extend composes this branch, which proves leaf to root A, with the next
// branch, which proves root A as a leaf to root B. The result proves leaf to
// root B with index (next.Index << depth) + b.Index and the siblings of b
// followed by the siblings of next.
func (b Branch) Extend(next Branch) (Branch, error) {
	if err := b.Validate(); err != nil {
		return Branch{}, fmt.Errorf("lower branch: %w", err)
	}
	if err := next.Validate(); err != nil {
		return Branch{}, fmt.Errorf("upper branch: %w", err)
	}

	depth := len(b.Siblings)
	if depth+len(next.Siblings) > MaxBranchLength {
		return Branch{}, fmt.Errorf("%w: depth %d", ErrBranchTooLong, depth+len(next.Siblings))
	}
	if depth > 0 && bits.Len64(next.Index)+depth > MaxBranchLength {
		return Branch{}, fmt.Errorf("%w: index %d shifted by %d", ErrIndexOutOfRange, next.Index, depth)
	}

	siblings := make([]common.Hash, 0, depth+len(next.Siblings))
	siblings = append(siblings, b.Siblings...)
	siblings = append(siblings, next.Siblings...)

	nb := Branch{
		Index:    (next.Index << uint(depth)) + b.Index,
		Siblings: siblings,
	}

	return nb, nil
}

// Compose extends the first branch with each of the following branches in
// order.
func Compose(branches ...Branch) (Branch, error) {
	if len(branches) == 0 {
		return Branch{}, errors.New("no branches to compose")
	}

	out := branches[0]
	for i, next := range branches[1:] {
		var err error
		if out, err = out.Extend(next); err != nil {
			return Branch{}, fmt.Errorf("composing level %d: %w", i+1, err)
		}
	}

	return out, nil
}
