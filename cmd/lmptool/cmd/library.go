/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ssargent/lmptool/pkg/codec"
	"github.com/ssargent/lmptool/pkg/interchange"
	"github.com/ssargent/lmptool/pkg/library"
	"github.com/ssargent/lmptool/pkg/lumpfile"
)

// libraryCmd represents the library command
var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the recording library",
	Long: `Import, list, export and delete recordings kept in the local library.
Identical recordings are stored once.`,
}

var libraryImportCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import recordings into the library",
	Long: `Import one or more .lmp recordings. Each file is stored under its base
name unless --name is given.

Examples:
  lmptool library import demo1.lmp demo2.lmp
  lmptool library import --name "e1m1 uv-max" demo1.lmp.zst`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name != "" && len(args) > 1 {
			return errors.New("--name can only be used with a single file")
		}

		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		for _, path := range args {
			entryName := name
			if entryName == "" {
				entryName = recordingName(path)
			}

			data, err := lumpfile.Read(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			entry, err := lib.Import(entryName, data)
			switch {
			case errors.Is(err, library.ErrDuplicate):
				cmd.Printf("%s already imported as %s (%s)\n", path, entry.ID, entry.Name)
				continue
			case err != nil:
				return fmt.Errorf("failed to import %s: %w", path, err)
			}

			for _, warning := range entry.Warnings {
				log.Warn("recording warning", zap.String("file", path), zap.String("detail", warning))
			}
			cmd.Printf("Imported %s as %s\n", path, entry.ID)
		}
		return nil
	},
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recordings in the library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		entries, err := lib.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			cmd.Println("Library is empty")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tVERSION\tPLAYERS\tTICS\tDURATION\tIMPORTED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				e.ID, e.Name, e.Version, e.Players, e.Tics,
				e.Duration.Round(time.Second), e.ImportedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var libraryExportCmd = &cobra.Command{
	Use:   "export <id> <output>",
	Short: "Export a recording from the library",
	Long: `Write a stored recording to a file. Output paths ending in .lmp (optionally
compressed) receive the raw recording; any other path receives a document in
the format chosen by --format or the extension.

Examples:
  lmptool library export 2Mv5Zc0qBbBNLUMGTRnEzHDl1Bd demo1.lmp
  lmptool library export 2Mv5Zc0qBbBNLUMGTRnEzHDl1Bd demo1.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		formatName, _ := cmd.Flags().GetString("format")

		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		_, data, err := lib.Get(args[0])
		if err != nil {
			return err
		}

		out := args[1]
		if formatName == "" && isRecordingPath(out) {
			if err := lumpfile.Write(out, data); err != nil {
				return fmt.Errorf("failed to write recording: %w", err)
			}
			cmd.Printf("Wrote %s (%d bytes)\n", out, len(data))
			return nil
		}

		format, err := resolveFormat(formatName, out)
		if err != nil {
			return err
		}
		doc, err := codec.NewRecordCodec(codec.WithWarningHandler(logWarning(args[0]))).Decode(data)
		if err != nil {
			return err
		}
		encoded, err := interchange.Marshal(doc, format)
		if err != nil {
			return err
		}
		if err := lumpfile.Write(out, encoded); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
		cmd.Printf("Wrote %s (%d tics)\n", out, len(doc.Tics))
		return nil
	},
}

var libraryDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete recordings from the library",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := openLibrary(cmd)
		if err != nil {
			return err
		}
		defer lib.Close()

		for _, id := range args {
			if err := lib.Delete(id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", id, err)
			}
			cmd.Printf("Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(libraryCmd)
	libraryCmd.AddCommand(libraryImportCmd)
	libraryCmd.AddCommand(libraryListCmd)
	libraryCmd.AddCommand(libraryExportCmd)
	libraryCmd.AddCommand(libraryDeleteCmd)

	libraryCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory (default from config)")
	libraryImportCmd.Flags().String("name", "", "Name to store the recording under")
	libraryExportCmd.Flags().StringP("format", "f", "", "Export as a document in this format (json, yaml, cbor)")
}

// openLibrary opens the library under --data-dir, falling back to the
// configured data directory.
func openLibrary(cmd *cobra.Command) (*library.Library, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return container.GetLibraryOpener()(filepath.Join(dataDir, "library"))
}

// recordingName derives a library name from a file path: "maps/DEMO1.lmp.zst"
// becomes "DEMO1".
func recordingName(path string) string {
	base := filepath.Base(lumpfile.TrimCompressionExt(path))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isRecordingPath(path string) bool {
	return strings.EqualFold(filepath.Ext(lumpfile.TrimCompressionExt(path)), ".lmp")
}
