package cmd

import (
	"fmt"

	"github.com/ardanlabs/chainrelay/foundation/blockchain/crosschain"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/importcoin"
	"github.com/ardanlabs/chainrelay/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	verifyRoot   string
	verifySymbol string
	verifyCCID   uint32
)

var verifyCmd = &cobra.Command{
	Use:   "verify <txid> <proof-hex>",
	Short: "Check offline that a proof reduces a txid to a root",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := verifyProof(args[0], args[1], verifyRoot)
		if err != nil {
			return err
		}

		return printJSON(cmd, result)
	},
}

var verifyImportCmd = &cobra.Command{
	Use:   "verify-import <import-tx-hex>",
	Short: "Check offline that an import is proven against a MoMoM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		burn, err := verifyImport(args[0], verifySymbol, verifyCCID, verifyRoot)
		if err != nil {
			return err
		}

		return printJSON(cmd, burn)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyRoot, "root", "r", "", "Root the proof must reduce to. Without it the computed root is printed.")

	rootCmd.AddCommand(verifyImportCmd)
	verifyImportCmd.Flags().StringVarP(&verifyRoot, "momom", "m", "", "MoMoM of the back notarization.")
	verifyImportCmd.Flags().StringVarP(&verifySymbol, "symbol", "s", "", "Symbol of this chain.")
	verifyImportCmd.Flags().Uint32VarP(&verifyCCID, "ccid", "c", 0, "Notarization group of this chain.")
	verifyImportCmd.MarkFlagRequired("momom")
	verifyImportCmd.MarkFlagRequired("symbol")
}

// =============================================================================

type verification struct {
	Txid   common.Hash `json:"txid"`
	Anchor common.Hash `json:"anchor"`
	Root   common.Hash `json:"root"`
	Depth  int         `json:"depth"`
	Valid  bool        `json:"valid"`
}

// verifyProof evaluates the proof for the txid. When a root is given the
// proof must reduce to it.
func verifyProof(txidHex string, proofHex string, rootHex string) (verification, error) {
	txid, err := parseHash("txid", txidHex)
	if err != nil {
		return verification{}, err
	}

	proof, err := merkle.TxProofFromHex(proofHex)
	if err != nil {
		return verification{}, fmt.Errorf("proof: %w", err)
	}

	if err := proof.Branch.Validate(); err != nil {
		return verification{}, fmt.Errorf("proof: %w", err)
	}

	v := verification{
		Txid:   txid,
		Anchor: proof.Anchor,
		Root:   proof.Branch.Exec(txid),
		Depth:  proof.Branch.Depth(),
	}

	if rootHex == "" {
		return v, nil
	}

	root, err := parseHash("root", rootHex)
	if err != nil {
		return verification{}, err
	}

	if err := proof.Branch.Verify(txid, root); err != nil {
		return verification{}, err
	}
	v.Valid = true

	return v, nil
}

// verifyImport checks the import against the MoMoM of the chain.
func verifyImport(txHex string, symbol string, ccid uint32, momomHex string) (importcoin.BurnData, error) {
	tx, err := importcoin.FromHex(txHex)
	if err != nil {
		return importcoin.BurnData{}, fmt.Errorf("import: %w", err)
	}

	momom, err := parseHash("momom", momomHex)
	if err != nil {
		return importcoin.BurnData{}, err
	}

	return crosschain.VerifyImport(tx, crosschain.ImportParams{Symbol: symbol, CCID: ccid}, momom)
}

func parseHash(field string, s string) (common.Hash, error) {
	data, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%s: %w", field, err)
	}

	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%s: expected %d bytes, got %d", field, common.HashLength, len(data))
	}

	return common.BytesToHash(data), nil
}
