package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTypesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the content types of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := s.build(cmd)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tALIASES\tFORMATS\tSOURCES\tDESCRIPTION")
			for _, ct := range c.Catalog.ContentTypes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
					ct.Name,
					dash(strings.Join(ct.Aliases, ",")),
					strings.Join(ct.Formats, ","),
					len(ct.Sources),
					dash(ct.Description))
			}
			return tw.Flush()
		},
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
