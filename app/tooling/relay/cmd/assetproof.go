package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var assetProofCmd = &cobra.Command{
	Use:   "asset-proof <txid>",
	Short: "Prove an asset chain transaction up to its notarized MoM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]any
		if err := call(cmd.Context(), http.MethodGet, "/v1/proof/asset/"+args[0], nil, &resp); err != nil {
			return err
		}

		return printJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(assetProofCmd)
}
