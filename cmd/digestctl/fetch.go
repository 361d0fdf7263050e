package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"daily-digest/internal/domain/entity"
	fetchUC "daily-digest/internal/usecase/fetch"
)

func newFetchCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <type>",
		Short: "Fetch the digest of a content type",
		Long: `Fetch the digest of a content type, trying its enabled sources in priority
order. --source pins one enabled source by its 1-based position.

Image digests carrying a binary payload are written to --output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, s, args[0])
		},
	}
	cmd.Flags().String("format", "", "Output format of the digest (image or text)")
	cmd.Flags().Int("source", 0, "1-based index of the enabled source to use")
	cmd.Flags().StringP("output", "o", "", "File receiving a binary image digest")
	cmd.Flags().Bool("json", false, "Print the digest as JSON")
	return cmd
}

func runFetch(cmd *cobra.Command, s *session, contentType string) error {
	format, _ := cmd.Flags().GetString("format")
	sourceIndex, _ := cmd.Flags().GetInt("source")
	output, _ := cmd.Flags().GetString("output")
	asJSON, _ := cmd.Flags().GetBool("json")

	if sourceIndex < 0 {
		return fmt.Errorf("invalid source index %d: must be a positive integer", sourceIndex)
	}

	c, err := s.build(cmd)
	if err != nil {
		return err
	}

	d, err := c.Digests.Get(cmd.Context(), fetchUC.DigestRequest{
		ContentType: contentType,
		Format:      format,
		SourceIndex: sourceIndex,
	})
	if err != nil {
		return err
	}

	if d.Bundle.HasBinary() {
		if output == "" {
			return fmt.Errorf("%s returned a %d byte image; write it with --output", d.ContentType, len(d.Bundle.BinaryPayload))
		}
		if err := os.WriteFile(output, d.Bundle.BinaryPayload, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(d.Bundle.BinaryPayload), output)
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return renderText(cmd.OutOrStdout(), d.Bundle)
}

// renderText prints the bundle as a numbered list.
func renderText(w io.Writer, b *entity.ContentBundle) error {
	var sb strings.Builder
	sb.WriteString(b.Title)
	if b.UpdateTime != "" {
		fmt.Fprintf(&sb, " (%s)", b.UpdateTime)
	}
	sb.WriteString("\n")
	for _, it := range b.Items {
		fmt.Fprintf(&sb, "%d. %s", it.Index, it.Title)
		if it.Hot != "" {
			fmt.Fprintf(&sb, " [%s]", it.Hot)
		}
		sb.WriteString("\n")
		if it.URL != "" && it.URL != "#" {
			fmt.Fprintf(&sb, "   %s\n", it.URL)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
