package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-handle/internal/boundary"
	"github.com/ironsheep/image-handle/internal/imaging"
)

func newInfoCommand(a *app) *cobra.Command {
	var (
		colors  int
		samples []string
	)

	cmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Show dimensions, format and colour statistics of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			tok, res := a.bnd.LoadResult(path)
			if res != boundary.Success {
				return &ResultError{Op: "load " + path, Result: res}
			}
			defer a.bnd.Release(tok)

			info, img, err := imaging.Inspect(path)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"File", path},
				{"Format", info.Format},
				{"Dimensions", fmt.Sprintf("%dx%d", a.bnd.Width(tok), a.bnd.Height(tok))},
				{"Has alpha", strconv.FormatBool(info.HasAlpha)},
				{"File size", fmt.Sprintf("%d bytes", info.FileSizeBytes)},
				{"Buffer size", fmt.Sprintf("%d bytes", a.bnd.DataLen(tok))},
			}
			if mean := imaging.MeanColor(img); mean != nil {
				rows = append(rows, []string{"Mean colour", describeColor(mean)})
			}
			for i, c := range imaging.DominantColors(img, colors) {
				rows = append(rows, []string{
					fmt.Sprintf("Dominant #%d", i+1),
					fmt.Sprintf("%s (%.1f%%)", c.Hex, c.Percentage),
				})
			}
			for _, s := range samples {
				x, y, err := parsePoint(s)
				if err != nil {
					return err
				}
				c, err := imaging.SampleColor(img, x, y)
				if err != nil {
					return err
				}
				rows = append(rows, []string{fmt.Sprintf("Pixel %d,%d", x, y), describeColor(c)})
			}

			table := tablewriter.NewTable(cmd.OutOrStdout())
			table.Header("Property", "Value")
			if err := table.Bulk(rows); err != nil {
				return err
			}
			return table.Render()
		},
	}

	cmd.Flags().IntVar(&colors, "colors", 3, "number of dominant colours to list")
	cmd.Flags().StringArrayVar(&samples, "sample", nil, "sample the pixel at X,Y (repeatable)")
	return cmd
}

func describeColor(c *imaging.ColorResult) string {
	return fmt.Sprintf("%s rgba(%d,%d,%d,%d) hsl(%d,%d%%,%d%%)",
		c.Hex, c.RGBA.R, c.RGBA.G, c.RGBA.B, c.RGBA.A, c.HSL.H, c.HSL.S, c.HSL.L)
}

func parsePoint(s string) (int, int, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("point %q: want X,Y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	return x, y, nil
}
