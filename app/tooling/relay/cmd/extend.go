package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var (
	extendSymbol string
	extendCCID   uint32
	extendProof  string
)

var extendCmd = &cobra.Command{
	Use:   "extend <txid>",
	Short: "Extend an asset chain proof up to the target chain's MoMoM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"txid":   args[0],
			"symbol": extendSymbol,
			"ccid":   extendCCID,
			"proof":  extendProof,
		}

		var resp map[string]any
		if err := call(cmd.Context(), http.MethodPost, "/v1/proof/extend", req, &resp); err != nil {
			return err
		}

		return printJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(extendCmd)
	extendCmd.Flags().StringVarP(&extendSymbol, "symbol", "s", "", "Symbol of the target chain.")
	extendCmd.Flags().Uint32VarP(&extendCCID, "ccid", "c", 0, "Notarization group of the target chain.")
	extendCmd.Flags().StringVarP(&extendProof, "proof", "p", "", "Hex of the asset chain proof.")
	extendCmd.MarkFlagRequired("symbol")
	extendCmd.MarkFlagRequired("proof")
}
