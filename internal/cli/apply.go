package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/image-handle/internal/boundary"
	"github.com/ironsheep/image-handle/internal/handle"
	"github.com/ironsheep/image-handle/internal/imaging"
	"github.com/ironsheep/image-handle/internal/recipe"
)

type applyFlags struct {
	recipe     string
	rotate     int
	flip       string
	resize     string
	filter     string
	brightness int32
	contrast   float32
	blur       float32
	grayscale  bool
	invert     bool
	dryRun     bool
}

func newApplyCommand(a *app) *cobra.Command {
	var f applyFlags

	cmd := &cobra.Command{
		Use:   "apply INPUT OUTPUT",
		Short: "Load INPUT, apply operations in order and save to OUTPUT",
		Long: `Load INPUT, apply operations and save the result to OUTPUT.

Steps from --recipe run first, then the flag operations in this order:
rotate, flip, resize, brightness, contrast, blur, grayscale, invert.
The output format follows OUTPUT's extension.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := f.ops(cmd)
			if err != nil {
				return err
			}
			if len(ops) == 0 && !f.dryRun {
				return errors.New("no operations given")
			}

			if f.dryRun {
				data, err := recipe.Marshal(ops)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			return a.apply(args[0], args[1], ops)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.recipe, "recipe", "", "YAML recipe whose steps run before the flag operations")
	fl.IntVar(&f.rotate, "rotate", 0, "rotate clockwise by 90, 180 or 270 degrees")
	fl.StringVar(&f.flip, "flip", "", "flip horizontally (h) or vertically (v)")
	fl.StringVar(&f.resize, "resize", "", "fit inside WxH, keeping the aspect ratio")
	fl.StringVar(&f.filter, "filter", "nearest", "resize filter: 0-4 or nearest, bilinear, bicubic, gaussian, lanczos3")
	fl.Int32Var(&f.brightness, "brightness", 0, "add to every colour channel")
	fl.Float32Var(&f.contrast, "contrast", 0, "contrast adjustment, negative to reduce")
	fl.Float32Var(&f.blur, "blur", 0, "Gaussian blur sigma")
	fl.BoolVar(&f.grayscale, "grayscale", false, "convert to grayscale")
	fl.BoolVar(&f.invert, "invert", false, "invert colours")
	fl.BoolVar(&f.dryRun, "dry-run", false, "print the operations as a recipe instead of running them")
	return cmd
}

func (a *app) apply(in, out string, ops []imaging.Op) error {
	tok, res := a.bnd.LoadResult(in)
	if res != boundary.Success {
		return &ResultError{Op: "load " + in, Result: res}
	}
	defer a.bnd.Release(tok)

	if res, err := a.bnd.Apply(tok, ops...); res != boundary.Success {
		label := "apply"
		var se *handle.StepError
		if errors.As(err, &se) {
			label = fmt.Sprintf("step %d (%s)", se.Step, se.Op)
		}
		return &ResultError{Op: label, Result: res}
	}

	if res := a.bnd.Save(tok, out); res != boundary.Success {
		return &ResultError{Op: "save " + out, Result: res}
	}

	a.log.Info("image written",
		zap.String("input", in),
		zap.String("output", out),
		zap.Int("steps", len(ops)),
		zap.Uint32("width", a.bnd.Width(tok)),
		zap.Uint32("height", a.bnd.Height(tok)))
	return nil
}

// ops collects the recipe steps followed by the flag operations.
func (f *applyFlags) ops(cmd *cobra.Command) ([]imaging.Op, error) {
	var ops []imaging.Op
	if f.recipe != "" {
		steps, err := recipe.Load(f.recipe)
		if err != nil {
			return nil, err
		}
		ops = append(ops, steps...)
	}

	fl := cmd.Flags()
	if fl.Changed("rotate") {
		op, err := (recipe.Step{Name: "rotate", Degrees: f.rotate}).Operation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if fl.Changed("flip") {
		op, err := (recipe.Step{Name: "flip", Axis: f.flip}).Operation()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if fl.Changed("resize") {
		w, h, err := parseSize(f.resize)
		if err != nil {
			return nil, err
		}
		filter, err := imaging.ParseFilter(f.filter)
		if err != nil {
			return nil, err
		}
		ops = append(ops, imaging.Resize{Width: w, Height: h, Filter: filter})
	}
	if fl.Changed("brightness") {
		ops = append(ops, imaging.Brightness{Delta: f.brightness})
	}
	if fl.Changed("contrast") {
		ops = append(ops, imaging.Contrast{Amount: f.contrast})
	}
	if fl.Changed("blur") {
		ops = append(ops, imaging.Blur{Sigma: f.blur})
	}
	if f.grayscale {
		ops = append(ops, imaging.Grayscale{})
	}
	if f.invert {
		ops = append(ops, imaging.Invert{})
	}
	return ops, nil
}

func parseSize(s string) (uint32, uint32, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	w, err := strconv.ParseUint(strings.TrimSpace(ws), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	h, err := strconv.ParseUint(strings.TrimSpace(hs), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	return uint32(w), uint32(h), nil
}
