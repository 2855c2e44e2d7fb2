package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next <ref-txid>",
	Short: "Find the back notarization after the one acknowledging a reference transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp map[string]any
		if err := call(cmd.Context(), http.MethodGet, "/v1/notarization/next/"+args[0], nil, &resp); err != nil {
			return err
		}

		return printJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(nextCmd)
}
