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

// lmpToJSONCmd represents the lmp-to-json command
var lmpToJSONCmd = &cobra.Command{
	Use:   "lmp-to-json <input> <output>",
	Short: "Convert a binary recording to a text document",
	Long: `Decode a .lmp recording into a document holding its header fields and tics.

The document format comes from --format, then the output extension, then the
configured default. Inputs and outputs ending in .zst or .lz4 are compressed.

Examples:
  lmptool lmp-to-json demo1.lmp demo1.json
  lmptool lmp-to-json demo1.lmp demo1.yaml
  lmptool lmp-to-json --strict --format cbor demo1.lmp.zst demo1.bin`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")
		format, err := resolveFormat(formatName, args[1])
		if err != nil {
			return err
		}

		doc, err := lmpToDocument(args[0], args[1], format, strictMode(cmd))
		if err != nil {
			return err
		}

		cmd.Printf("Wrote %s (%d header fields, %d tics)\n", args[1], len(doc.Header), len(doc.Tics))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lmpToJSONCmd)
	lmpToJSONCmd.Flags().StringP("format", "f", "", "Document format (json, yaml, cbor)")
	lmpToJSONCmd.Flags().Bool("strict", false, "Fail on sentinel or alignment warnings")
}

// lmpToDocument reads the recording at in and writes it to out as a document.
func lmpToDocument(in, out string, format interchange.Format, strict bool) (*codec.Document, error) {
	data, err := lumpfile.Read(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}

	c := codec.NewRecordCodec(codec.WithStrict(strict), codec.WithWarningHandler(logWarning(in)))
	doc, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", in, err)
	}

	encoded, err := interchange.Marshal(doc, format)
	if err != nil {
		return nil, err
	}
	if err := lumpfile.Write(out, encoded); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	log.Debug("decoded recording",
		zap.String("input", in),
		zap.String("output", out),
		zap.String("format", string(format)),
		zap.Int("tics", len(doc.Tics)),
	)
	return doc, nil
}

// resolveFormat picks the document format from the flag, then the path
// extension, then the configured default.
func resolveFormat(flagValue, path string) (interchange.Format, error) {
	if flagValue != "" {
		return interchange.ParseFormat(flagValue)
	}
	if f, err := interchange.FormatFromPath(lumpfile.TrimCompressionExt(path)); err == nil {
		return f, nil
	}
	return interchange.ParseFormat(cfg.Conversion.DefaultFormat)
}

// strictMode prefers an explicit --strict over the configured default.
func strictMode(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("strict") {
		strict, _ := cmd.Flags().GetBool("strict")
		return strict
	}
	return cfg.Conversion.Strict
}

func logWarning(source string) func(codec.Warning) {
	return func(w codec.Warning) {
		log.Warn("recording warning",
			zap.String("file", source),
			zap.Stringer("kind", w.Kind),
			zap.String("detail", w.Message),
		)
	}
}
