package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/limit-importer/backend/internal/hardware/sim"
	"github.com/limit-importer/backend/internal/index"
	"github.com/limit-importer/backend/internal/models"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var indexFormat string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the signal path / measurement / result hierarchy of the rig",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rigPath == "" {
			return fmt.Errorf("no rig: pass --rig or set LIMIT_RIG")
		}
		rig, err := sim.LoadRig(rigPath)
		if err != nil {
			return fmt.Errorf("loading rig: %w", err)
		}
		idx := index.New(nil, logger).Build(rig)
		return printIndex(cmd.OutOrStdout(), idx, indexFormat)
	},
}

func init() {
	indexCmd.Flags().StringVarP(&indexFormat, "format", "f", "tree", "output format: tree, json or yaml")
}

func printIndex(w io.Writer, idx *models.HierarchyIndex, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(idx)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(idx.Paths)
	case "tree", "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	for _, p := range idx.Paths {
		fmt.Fprintln(w, p.Name)
		for _, m := range p.Measurements {
			fmt.Fprintf(w, "  %s\n", m.Name)
			for _, r := range m.Results {
				fmt.Fprintf(w, "    %s (%s, %d channels)\n", r.Name, r.ValueType, r.Channels)
			}
		}
	}
	for _, s := range idx.Skipped {
		fmt.Fprintf(w, "skipped: %s\n", s)
	}
	return nil
}
