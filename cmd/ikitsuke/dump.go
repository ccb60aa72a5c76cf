package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/ikitsuke/internal/kv"
	"github.com/HendryAvila/ikitsuke/internal/notes"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	exportFormat string
	exportOutput string
	importFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every user and note as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := kv.Open(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		data, err := notes.Export(cmd.Context(), store)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := encodeDump(w, data, exportFormat); err != nil {
			return err
		}
		logger.Info("exported", "notes", len(data.Notes), "users", len(data.Users))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace every user and note with a previous export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := importFormat
		if format == "" {
			format = formatFromPath(args[0])
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		data, err := decodeDump(f, format)
		if err != nil {
			return err
		}

		store, err := kv.Open(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := notes.Import(cmd.Context(), store, data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d notes and %d users.\n", len(data.Notes), len(data.Users))
		return nil
	},
}

// encodeDump writes data in format. YAML keys follow the JSON field names.
func encodeDump(w io.Writer, data *notes.ExportData, format string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	switch strings.ToLower(format) {
	case "", formatJSON:
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	case formatYAML:
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q (want json or yaml)", format)
}

// decodeDump reads a dump written by encodeDump.
func decodeDump(r io.Reader, format string) (*notes.ExportData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", formatJSON:
	case formatYAML:
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return nil, fmt.Errorf("decoding yaml: %w", err)
		}
		if raw, err = json.Marshal(generic); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	data := &notes.ExportData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decoding dump: %w", err)
	}
	return data, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML
	}
	return formatJSON
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", formatJSON, "output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")
	importCmd.Flags().StringVar(&importFormat, "format", "", "input format: json or yaml (default: from the file extension)")
	rootCmd.AddCommand(exportCmd, importCmd)
}
