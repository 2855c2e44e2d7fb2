package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var proofRootCmd = &cobra.Command{
	Use:   "root <symbol> <ccid> <height>",
	Short: "Compute the MoMoM ending at a reference chain notarization",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := fmt.Sprintf("/v1/proof/root/%s/%s/%s", args[0], args[1], args[2])

		var resp map[string]any
		if err := call(cmd.Context(), http.MethodGet, path, nil, &resp); err != nil {
			return err
		}

		return printJSON(cmd, resp)
	},
}

func init() {
	rootCmd.AddCommand(proofRootCmd)
}
