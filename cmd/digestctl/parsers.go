package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newParsersCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "parsers",
		Short: "List the registered parser kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := s.build(cmd)
			if err != nil {
				return err
			}
			for _, kind := range c.Parsers.Kinds() {
				fmt.Fprintln(cmd.OutOrStdout(), kind)
			}
			return nil
		},
	}
}
