package merkle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxProof is a transaction's provenance back to some root, tagged with the
// anchoring transaction the verifier must independently trust.
type TxProof struct {
	Anchor common.Hash `json:"anchor"`
	Branch Branch      `json:"branch"`
}

// IsZero reports whether the proof has never been set.
func (p TxProof) IsZero() bool {
	return p.Anchor == (common.Hash{}) && p.Branch.Index == 0 && len(p.Branch.Siblings) == 0
}

// EncodeTxProof writes the anchor as 32 raw bytes followed by the branch.
func EncodeTxProof(w io.Writer, p TxProof) error {
	if _, err := w.Write(p.Anchor[:]); err != nil {
		return err
	}

	return EncodeBranch(w, p.Branch)
}

// DecodeTxProof reads a proof written by EncodeTxProof.
func DecodeTxProof(r io.Reader) (TxProof, error) {
	var p TxProof
	if _, err := io.ReadFull(r, p.Anchor[:]); err != nil {
		return TxProof{}, fmt.Errorf("reading anchor: %w", unexpectedEOF(err))
	}

	branch, err := DecodeBranch(r)
	if err != nil {
		return TxProof{}, err
	}
	p.Branch = branch

	return p, nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (p TxProof) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTxProof(&buf, p); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (p *TxProof) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)

	proof, err := DecodeTxProof(r)
	if err != nil {
		return err
	}

	if r.Len() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, r.Len())
	}

	*p = proof

	return nil
}

// Hex returns the hex encoding of the binary layout.
func (p TxProof) Hex() (string, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return "", err
	}

	return hexutil.Encode(data), nil
}

// TxProofFromHex decodes a proof from the hex encoding of its binary layout.
func TxProofFromHex(s string) (TxProof, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return TxProof{}, fmt.Errorf("decoding hex: %w", err)
	}

	var p TxProof
	if err := p.UnmarshalBinary(data); err != nil {
		return TxProof{}, err
	}

	return p, nil
}
