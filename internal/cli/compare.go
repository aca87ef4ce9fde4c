package cli

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-handle/internal/boundary"
	"github.com/ironsheep/image-handle/internal/imaging"
)

// ErrImagesDiffer is returned by compare --strict for non-identical images.
var ErrImagesDiffer = errors.New("images differ")

func newCompareCommand(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "compare A B",
		Short: "Compare the decoded pixels of two images",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var views [2]image.Image
			for i, path := range args {
				tok, res := a.bnd.LoadResult(path)
				if res != boundary.Success {
					return &ResultError{Op: "load " + path, Result: res}
				}
				defer a.bnd.Release(tok)

				view, err := imaging.FromCanonical(a.bnd.Data(tok), a.bnd.Width(tok), a.bnd.Height(tok))
				if err != nil {
					return err
				}
				views[i] = view
			}

			r := imaging.Compare(views[0], views[1])

			table := tablewriter.NewTable(cmd.OutOrStdout())
			table.Header("Metric", "Value")
			rows := [][]string{
				{"Identical", strconv.FormatBool(r.Identical)},
				{"Same size", strconv.FormatBool(r.SameSize)},
				{"Similarity", fmt.Sprintf("%.3f", r.SimilarityScore)},
				{"Pixels different", fmt.Sprintf("%d of %d", r.PixelsDifferent, r.TotalPixels)},
				{"Average difference", fmt.Sprintf("%.2f", r.AverageColorDiff)},
				{"Max channel difference", strconv.Itoa(r.MaxChannelDiff)},
			}
			if err := table.Bulk(rows); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}

			if strict && !r.Identical {
				return ErrImagesDiffer
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero unless the images are identical")
	return cmd
}
