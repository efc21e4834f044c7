/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/lmptool/pkg/codec"
	"github.com/ssargent/lmptool/pkg/interchange"
	"github.com/ssargent/lmptool/pkg/lumpfile"
)

// jsonToLMPCmd represents the json-to-lmp command
var jsonToLMPCmd = &cobra.Command{
	Use:   "json-to-lmp <input> <output>",
	Short: "Convert a text document back to a binary recording",
	Long: `Encode a document produced by lmp-to-json (possibly hand edited) back into
a .lmp recording. Header fields are written in document order.

The document format comes from --format, then the input extension, then the
configured default. JSON input may contain comments and trailing commas.

Examples:
  lmptool json-to-lmp demo1.json demo1.lmp
  lmptool json-to-lmp --format yaml edited.txt demo1.lmp.zst`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := resolveFormat(formatName, args[0])
		if err != nil {
			return err
		}

		size, err := documentToLMP(args[0], args[1], format)
		if err != nil {
			return err
		}

		cmd.Printf("Wrote %s (%d bytes)\n", args[1], size)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jsonToLMPCmd)
	jsonToLMPCmd.Flags().StringP("format", "f", "", "Document format (json, yaml, cbor)")
}

// documentToLMP reads the document at in and writes the encoded recording to
// out, returning the recording size.
func documentToLMP(in, out string, format interchange.Format) (int, error) {
	data, err := lumpfile.Read(in)
	if err != nil {
		return 0, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := interchange.Unmarshal(data, format)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", in, err)
	}
	if _, ok := doc.Header.Layout(); !ok {
		log.Warn("header does not match a known layout, encoding fields as given",
			zap.String("file", in),
			zap.Int("fields", len(doc.Header)),
		)
	}

	lmp, err := codec.NewRecordCodec().Encode(doc)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", in, err)
	}
	if err := lumpfile.Write(out, lmp); err != nil {
		return 0, fmt.Errorf("failed to write recording: %w", err)
	}

	log.Debug("encoded recording",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("bytes", len(lmp)),
	)
	return len(lmp), nil
}
