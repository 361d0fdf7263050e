package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"daily-digest/internal/app"
	"daily-digest/internal/domain/entity"
	srcUC "daily-digest/internal/usecase/source"
)

const (
	actionEnable  = "enable"
	actionDisable = "disable"
	actionReset   = "reset"
)

func newSourcesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sources [type]",
		Short: "Show source health for one or every content type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := s.build(cmd)
			if err != nil {
				return err
			}

			all := c.Sources.StatusAll()
			types := make([]string, 0, len(all))
			if len(args) == 1 {
				name, err := resolveType(c, args[0])
				if err != nil {
					return err
				}
				types = append(types, name)
			} else {
				for ct := range all {
					types = append(types, ct)
				}
				sort.Strings(types)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tPRIORITY\tENABLED\tFAILURES\tLAST SUCCESS\tPARSER\tURL")
			for _, ct := range types {
				for _, snap := range all[ct] {
					fmt.Fprintf(tw, "%s\t%d\t%t\t%d\t%s\t%s\t%s\n",
						ct, snap.Priority, snap.Enabled, snap.FailureCount,
						lastSuccess(snap), snap.Parser, snap.URL)
				}
			}
			return tw.Flush()
		},
	}
}

func lastSuccess(snap entity.SourceSnapshot) string {
	if snap.LastSuccess <= 0 {
		return "never"
	}
	sec := int64(snap.LastSuccess)
	nsec := int64((snap.LastSuccess - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC().Format(time.RFC3339)
}

func newActionCmd(s *session, action string) *cobra.Command {
	short := map[string]string{
		actionEnable:  "Enable a source, or every source of the type with \"all\"",
		actionDisable: "Disable a source, or every source of the type with \"all\"",
		actionReset:   "Re-enable a source and clear its counters; \"all\" resets the whole type",
	}[action]

	cmd := &cobra.Command{
		Use:   action + " <type> <url|all>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := s.build(cmd)
			if err != nil {
				return err
			}
			name, err := resolveType(c, args[0])
			if err != nil {
				return err
			}

			op := c.Sources.Enable
			switch action {
			case actionDisable:
				op = c.Sources.Disable
			case actionReset:
				op = c.Sources.Reset
			}

			n, err := op(cmd.Context(), name, args[1])
			if err != nil && !errors.Is(err, srcUC.ErrStatusNotPersisted) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d source(s) of %s\n", action, n, name)
			return err
		},
	}

	if action == actionReset {
		cmd.Use = action + " <type> <url|all> | reset --all-types"
		cmd.Args = cobra.RangeArgs(0, 2)
		cmd.Flags().Bool("all-types", false, "Reset every source of every content type")
		run := cmd.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			allTypes, _ := cmd.Flags().GetBool("all-types")
			if !allTypes {
				if len(args) != 2 {
					return errors.New("reset requires <type> and <url|all>, or --all-types")
				}
				return run(cmd, args)
			}
			if len(args) != 0 {
				return errors.New("--all-types takes no arguments")
			}
			c, err := s.build(cmd)
			if err != nil {
				return err
			}
			n, err := c.Sources.ResetAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "reset: %d source(s) of every type\n", n)
			return err
		}
	}
	return cmd
}

// resolveType maps an alias to its canonical content type name.
func resolveType(c *app.Components, name string) (string, error) {
	ct, ok := c.Catalog.Resolve(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", entity.ErrUnknownContentType, name)
	}
	if !c.Sources.HasContentType(ct.Name) {
		return "", fmt.Errorf("%w: %q has no sources", srcUC.ErrSourceNotFound, ct.Name)
	}
	return ct.Name, nil
}
