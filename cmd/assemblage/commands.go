package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/assemblage/backend/pkg/assemblage"
	"github.com/assemblage/backend/pkg/resolve"

	"github.com/spf13/cobra"
)

type detector interface {
	Detect(ctx context.Context, req assemblage.Request) (assemblage.Result, error)
}

func newRootCmd(newDetector func() (detector, error)) *cobra.Command {
	root := &cobra.Command{
		Use:   "assemblage",
		Short: "Cluster actor graphs into assemblages",
		Long: `Cluster actor graphs into assemblages and reconcile their links.

Examples:
  assemblage detect -f request.json --seed 42
  assemblage match "OpenAI Inc." "Open AI"
  assemblage reconcile -f links.json`,
		SilenceUsage: true,
	}

	root.AddCommand(newDetectCmd(newDetector))
	root.AddCommand(newMatchCmd())
	root.AddCommand(newReconcileCmd())
	return root
}

func newDetectCmd(newDetector func() (detector, error)) *cobra.Command {
	var file string
	var seed uint64

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect communities in an actor graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req assemblage.Request
			if err := readJSON(file, cmd.InOrStdin(), &req); err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}

			d, err := newDetector()
			if err != nil {
				return err
			}
			res, err := d.Detect(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Request JSON file, - for stdin")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Fix the node visitation order")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "match <name> <name>",
		Short: "Check whether two names denote the same entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			na, nb := resolve.Normalize(args[0]), resolve.Normalize(args[1])
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"normalized_a": na,
				"normalized_b": nb,
				"distance":     resolve.Levenshtein(na, nb),
				"match":        resolve.MatchesWithin(args[0], args[1], threshold),
			})
		},
	}

	cmd.Flags().IntVar(&threshold, "threshold", resolve.DefaultDistanceThreshold, "Maximum edit distance for fuzzy matches")
	return cmd
}

func newReconcileCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge heuristic links with formal claims",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req assemblage.ReconcileRequest
			if err := readJSON(file, cmd.InOrStdin(), &req); err != nil {
				return err
			}
			res, err := assemblage.Reconcile(req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Links JSON file, - for stdin")
	return cmd
}

func readJSON(path string, stdin io.Reader, out any) error {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
