package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/guilt/hashkit/pkg/common"
	"github.com/guilt/hashkit/pkg/hashers"
)

func newListCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats := common.Categories()
			if category != "" {
				c, err := common.ParseCategory(category)
				if err != nil {
					return err
				}
				cats = []common.Category{c}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range cats {
				for _, e := range hashers.ByCategory(c) {
					keyed := ""
					if e.Keyed {
						keyed = "key required"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, c, keyed)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list one category (checksum, non-cryptographic, cryptographic, keyed, password)")
	return cmd
}
