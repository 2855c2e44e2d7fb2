package merkle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ethereum/go-ethereum/common"
)

// Set of errors returned when decoding the binary layout.
var (
	ErrVarIntOverflow       = errors.New("varint overflows 64 bits")
	ErrNonCanonicalSize     = errors.New("non-canonical compact size")
	ErrTrailingBytes        = errors.New("trailing bytes after value")
	ErrTooManySiblings      = errors.New("sibling count exceeds maximum depth")
	errUnexpectedEndOfInput = io.ErrUnexpectedEOF
)

// The branch is written as the index in the MSB base-128 varint format,
// the sibling count as a compact size and then each sibling as 32 raw bytes.
// This layout must not change since proofs are verified on other chains.

// EncodeBranch writes the binary layout of the branch.
func EncodeBranch(w io.Writer, b Branch) error {
	if len(b.Siblings) > MaxBranchLength {
		return fmt.Errorf("%w: %d", ErrTooManySiblings, len(b.Siblings))
	}

	if err := writeVarInt(w, b.Index); err != nil {
		return err
	}

	if err := writeCompactSize(w, uint64(len(b.Siblings))); err != nil {
		return err
	}

	for _, sibling := range b.Siblings {
		if _, err := w.Write(sibling[:]); err != nil {
			return err
		}
	}

	return nil
}

// DecodeBranch reads the binary layout of a branch.
func DecodeBranch(r io.Reader) (Branch, error) {
	index, err := readVarInt(r)
	if err != nil {
		return Branch{}, fmt.Errorf("reading index: %w", err)
	}

	count, err := readCompactSize(r)
	if err != nil {
		return Branch{}, fmt.Errorf("reading sibling count: %w", err)
	}

	if count > MaxBranchLength {
		return Branch{}, fmt.Errorf("%w: %d", ErrTooManySiblings, count)
	}

	siblings := make([]common.Hash, count)
	for i := range siblings {
		if _, err := io.ReadFull(r, siblings[i][:]); err != nil {
			return Branch{}, fmt.Errorf("reading sibling %d: %w", i, err)
		}
	}

	return Branch{Index: index, Siblings: siblings}, nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (b Branch) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeBranch(&buf, b); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (b *Branch) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	branch, err := DecodeBranch(r)
	if err != nil {
		return err
	}

	if r.Len() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, r.Len())
	}

	*b = branch

	return nil
}

// =============================================================================

// writeVarInt writes the value using the MSB base-128 format where every
// continuation byte also carries an implicit +1 so each value has exactly
// one encoding.
func writeVarInt(w io.Writer, n uint64) error {
	var tmp [10]byte
	l := 0
	for {
		tmp[l] = byte(n & 0x7F)
		if l > 0 {
			tmp[l] |= 0x80
		}
		if n <= 0x7F {
			break
		}
		n = (n >> 7) - 1
		l++
	}

	out := make([]byte, 0, l+1)
	for i := l; i >= 0; i-- {
		out = append(out, tmp[i])
	}

	_, err := w.Write(out)
	return err
}

func readVarInt(r io.Reader) (uint64, error) {
	var n uint64
	var b [1]byte
	for {
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, unexpectedEOF(err)
		}

		if n > (math.MaxUint64 >> 7) {
			return 0, ErrVarIntOverflow
		}
		n = (n << 7) | uint64(b[0]&0x7F)

		if b[0]&0x80 == 0 {
			return n, nil
		}

		if n == math.MaxUint64 {
			return 0, ErrVarIntOverflow
		}
		n++
	}
}

func writeCompactSize(w io.Writer, n uint64) error {
	var buf []byte
	switch {
	case n < 253:
		buf = []byte{byte(n)}
	case n <= math.MaxUint16:
		buf = make([]byte, 3)
		buf[0] = 253
		binary.LittleEndian.PutUint16(buf[1:], uint16(n))
	case n <= math.MaxUint32:
		buf = make([]byte, 5)
		buf[0] = 254
		binary.LittleEndian.PutUint32(buf[1:], uint32(n))
	default:
		buf = make([]byte, 9)
		buf[0] = 255
		binary.LittleEndian.PutUint64(buf[1:], n)
	}

	_, err := w.Write(buf)
	return err
}

func readCompactSize(r io.Reader) (uint64, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, unexpectedEOF(err)
	}

	switch b[0] {
	case 253:
		var v [2]byte
		if _, err := io.ReadFull(r, v[:]); err != nil {
			return 0, unexpectedEOF(err)
		}
		n := uint64(binary.LittleEndian.Uint16(v[:]))
		if n < 253 {
			return 0, ErrNonCanonicalSize
		}
		return n, nil

	case 254:
		var v [4]byte
		if _, err := io.ReadFull(r, v[:]); err != nil {
			return 0, unexpectedEOF(err)
		}
		n := uint64(binary.LittleEndian.Uint32(v[:]))
		if n <= math.MaxUint16 {
			return 0, ErrNonCanonicalSize
		}
		return n, nil

	case 255:
		var v [8]byte
		if _, err := io.ReadFull(r, v[:]); err != nil {
			return 0, unexpectedEOF(err)
		}
		n := binary.LittleEndian.Uint64(v[:])
		if n <= math.MaxUint32 {
			return 0, ErrNonCanonicalSize
		}
		return n, nil
	}

	return uint64(b[0]), nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return errUnexpectedEndOfInput
	}
	return err
}
