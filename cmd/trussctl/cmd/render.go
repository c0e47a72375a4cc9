package cmd

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trussvision/trussvision/backend-go/internal/analysis"
	"github.com/trussvision/trussvision/backend-go/internal/engine"
	"github.com/trussvision/trussvision/backend-go/internal/raster"
)

const backgroundID = "background"

var (
	frameWidth       int
	frameHeight      int
	resultFile       string
	backgroundFile   string
	outputFile       string
	showDeformed     bool
	showStress       bool
	showForces       bool
	deformationScale float64
)

var opsCmd = &cobra.Command{
	Use:   "ops <model.json|->",
	Short: "Print the draw ops for a snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runOps,
}

var renderCmd = &cobra.Command{
	Use:   "render <model.json|->",
	Short: "Rasterize a snapshot to PNG",
	Long: `Fits the snapshot to a width x height frame and rasterizes it.

With --result the frame is drawn in result mode using the display flags.
With --background a PNG or JPEG is traced under the structure, one pixel
per model unit.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(renderCmd)

	for _, c := range []*cobra.Command{opsCmd, renderCmd} {
		f := c.Flags()
		f.IntVar(&frameWidth, "width", 800, "frame width in pixels")
		f.IntVar(&frameHeight, "height", 600, "frame height in pixels")
		f.StringVarP(&resultFile, "result", "r", "", "analysis result JSON (id-keyed or service response)")
		f.StringVar(&backgroundFile, "background", "", "background image (PNG or JPEG)")
		f.BoolVar(&showDeformed, "deformed", true, "draw the deformed shape in result mode")
		f.BoolVar(&showStress, "stress", true, "color members by stress ratio in result mode")
		f.BoolVar(&showForces, "forces", false, "label member forces in result mode")
		f.Float64Var(&deformationScale, "scale", engine.DefaultDeformationScale, "deformation scale")
	}
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "truss.png", "output PNG file")
}

func buildScene(cmd *cobra.Command, modelFile string) (engine.Scene, image.Image, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return engine.Scene{}, nil, fmt.Errorf("invalid frame size %dx%d", frameWidth, frameHeight)
	}
	m, err := loadModel(cmd, modelFile)
	if err != nil {
		return engine.Scene{}, nil, err
	}

	w, h := float64(frameWidth), float64(frameHeight)
	sc := engine.Scene{
		Model:    m,
		Viewport: engine.FitToView(m, w, h),
		Surface:  engine.Surface{Width: w, Height: h},
		Flags: engine.DisplayFlags{
			ShowDeformed:     showDeformed,
			ShowStress:       showStress,
			ShowForces:       showForces,
			DeformationScale: deformationScale,
		},
	}

	if resultFile != "" {
		data, err := readInput(cmd, resultFile)
		if err != nil {
			return engine.Scene{}, nil, err
		}
		res, err := analysis.Decode(data)
		if err != nil {
			return engine.Scene{}, nil, err
		}
		sc.Result = res
	}

	var bg image.Image
	if backgroundFile != "" {
		f, err := os.Open(backgroundFile)
		if err != nil {
			return engine.Scene{}, nil, fmt.Errorf("open background: %w", err)
		}
		defer f.Close()
		bg, _, err = image.Decode(f)
		if err != nil {
			return engine.Scene{}, nil, fmt.Errorf("decode background: %w", err)
		}
		b := bg.Bounds()
		sc.Background = &engine.Background{ImageID: backgroundID, Width: b.Dx(), Height: b.Dy()}
	}
	return sc, bg, nil
}

func runOps(cmd *cobra.Command, args []string) error {
	sc, _, err := buildScene(cmd, args[0])
	if err != nil {
		return err
	}
	ops := engine.Render(sc)
	if ops == nil {
		ops = []engine.DrawOp{}
	}
	return writeJSON(cmd, ops)
}

func runRender(cmd *cobra.Command, args []string) error {
	sc, bg, err := buildScene(cmd, args[0])
	if err != nil {
		return err
	}
	ops := engine.Render(sc)

	opts := []raster.Option{raster.WithLogger(slog.Default())}
	if bg != nil {
		opts = append(opts, raster.WithImage(backgroundID, bg))
	}
	rz, err := raster.New(frameWidth, frameHeight, opts...)
	if err != nil {
		return err
	}

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", outputFile, err)
	}
	if err := rz.WritePNG(out, ops); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%dx%d, %d ops)\n",
		color.GreenString("✓ wrote"), outputFile, frameWidth, frameHeight, len(ops))
	return nil
}
