package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <import-tx-hex>",
	Short: "Swap the asset chain proof of an import for the extended proof",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := map[string]any{
			"tx": args[0],
		}

		var resp map[string]any
		if err := call(cmd.Context(), http.MethodPost, "/v1/import/complete", req, &resp); err != nil {
			return err
		}

		return printJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
