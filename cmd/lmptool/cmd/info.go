/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ssargent/lmptool/pkg/inspect"
	"github.com/ssargent/lmptool/pkg/lumpfile"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <input>",
	Short: "Show a summary of a recording",
	Long: `Print the header fields, tic counts, play time and content hash of a
.lmp recording. Decode warnings are listed rather than treated as errors.

Examples:
  lmptool info demo1.lmp
  lmptool info --json demo1.lmp.zst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		data, err := lumpfile.Read(args[0])
		if err != nil {
			return fmt.Errorf("failed to read recording: %w", err)
		}
		summary, err := inspect.Summarize(data)
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", args[0], err)
		}

		if asJSON {
			return outputSummaryJSON(cmd.OutOrStdout(), summary)
		}
		return outputSummaryTable(cmd.OutOrStdout(), summary)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().Bool("json", false, "Print the summary as JSON")
}

func outputSummaryJSON(out io.Writer, summary *inspect.Summary) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func outputSummaryTable(out io.Writer, summary *inspect.Summary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Version:\t%d\n", summary.Version)
	fmt.Fprintf(w, "Layout:\t%s\n", summary.Layout)
	for _, f := range summary.Header[1:] {
		fmt.Fprintf(w, "  %s:\t%d\n", f.Name, f.Value)
	}
	fmt.Fprintf(w, "Players:\t%d\n", summary.Players)
	fmt.Fprintf(w, "Tics:\t%d (%d per player)\n", summary.Tics, summary.GameTics)
	fmt.Fprintf(w, "Duration:\t%s\n", summary.Duration)
	fmt.Fprintf(w, "Size:\t%s (%d bytes)\n", summary.SizeHuman, summary.Size)
	fmt.Fprintf(w, "Hash:\t%s\n", summary.Hash)
	for _, warning := range summary.Warnings {
		fmt.Fprintf(w, "Warning:\t%s\n", warning)
	}

	return w.Flush()
}
