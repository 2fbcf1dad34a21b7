package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/external"
	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/worker"
)

// DefaultTaskTimeout bounds a single external task.
const DefaultTaskTimeout = 10 * time.Minute

var errNoInput = errors.New("input file is required")

// upscalerFor prefers the configured super-resolution command and falls back
// to resampling.
func upscalerFor(cfg *config.Config) external.Upscaler {
	if strings.TrimSpace(cfg.External.UpscaleCommand) != "" {
		return &external.Command{Template: cfg.External.UpscaleCommand}
	}
	return external.ResampleUpscaler{}
}

// taskFlags are shared by the commands that run one background task.
type taskFlags struct {
	file    string
	output  string
	timeout time.Duration
}

func (t *taskFlags) register(fs *flag.FlagSet, needInput bool) {
	if needInput {
		fs.StringVar(&t.file, "file", "", "input image file")
	}
	fs.StringVar(&t.output, "output", "", "output file path")
	fs.DurationVar(&t.timeout, "timeout", DefaultTaskTimeout, "give up after this long")
}

func (t *taskFlags) check(r *root, needInput bool) error {
	if needInput && t.file == "" {
		return errNoInput
	}
	if t.output == "" {
		return errors.New("output file is required")
	}
	t.output = r.outputPath(t.output)
	return nil
}

// runTask submits fn to a worker pool owned by a fresh session, installs the
// result and saves it. The session is handed to fn before submission so the
// task can snapshot the loaded image.
func (r *root) runTask(kind string, t taskFlags, fn func(s *canvas.Session) worker.Func) error {
	pool := worker.NewPool(r.config.External.Workers)
	defer pool.Close()
	s, err := r.newSession(pool)
	if err != nil {
		return err
	}
	defer s.Close()
	if t.file != "" {
		if err := s.LoadFile(t.file); err != nil {
			return err
		}
	}
	if _, err := s.Submit(kind, fn(s)); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if err := s.WaitTask(ctx); err != nil {
		return err
	}
	if err := s.Save(t.output); err != nil {
		return err
	}
	r.printf("%s: saved %s (%dx%d)\n", kind, t.output, s.Active.Width(), s.Active.Height())
	return nil
}

// upscaleCmd enlarges an image by an integer factor.
type upscaleCmd struct {
	*root
	fs     *flag.FlagSet
	task   taskFlags
	factor int
	tile   int
}

func (c *upscaleCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseUpscaleCmd(args []string, r *root) (*upscaleCmd, error) {
	fs := flag.NewFlagSet("upscale", flag.ContinueOnError)
	c := &upscaleCmd{root: r.subcommand("upscale"), fs: fs}
	fs.Usage = usageFunc(c)
	c.task.register(fs, true)
	fs.IntVar(&c.factor, "factor", 2, "scale factor")
	fs.IntVar(&c.tile, "tile", 0, "tile size hint for the upscale command (0 for whole image)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.task.check(c.root, true); err != nil {
		return nil, err
	}
	if c.factor < 1 {
		return nil, fmt.Errorf("factor %d must be positive", c.factor)
	}
	return c, nil
}

func (c *upscaleCmd) Run() error {
	up := upscalerFor(c.config)
	return c.runTask("upscale", c.task, func(s *canvas.Session) worker.Func {
		img := s.Snapshot()
		return func(ctx context.Context) (*pixbuf.Buffer, error) {
			defer img.Release()
			return up.Upscale(ctx, img, c.factor, c.tile)
		}
	})
}

// styleCmd repaints an image in the style of another through the configured
// style transfer command.
type styleCmd struct {
	*root
	fs     *flag.FlagSet
	task   taskFlags
	style  string
	params external.StyleParams
	alpha  float64
}

func (c *styleCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseStyleCmd(args []string, r *root) (*styleCmd, error) {
	fs := flag.NewFlagSet("style", flag.ContinueOnError)
	c := &styleCmd{root: r.subcommand("style"), fs: fs, params: external.DefaultStyleParams()}
	fs.Usage = usageFunc(c)
	c.task.register(fs, true)
	fs.StringVar(&c.style, "style", "", "style image file")
	fs.Float64Var(&c.alpha, "alpha", float64(c.params.Alpha), "blend between content (0) and style (1)")
	fs.IntVar(&c.params.StyleSize, "style-size", c.params.StyleSize, "style image size passed to the command")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.task.check(c.root, true); err != nil {
		return nil, err
	}
	if c.style == "" {
		return nil, errors.New("style image is required")
	}
	if c.alpha < 0 || c.alpha > 1 {
		return nil, fmt.Errorf("alpha %g outside 0..1", c.alpha)
	}
	c.params.Alpha = float32(c.alpha)
	return c, nil
}

func (c *styleCmd) Run() error {
	style, err := imageio.Load(c.style)
	if err != nil {
		return err
	}
	defer style.Release()
	tr := &external.Command{Template: c.config.External.StyleCommand}
	return c.runTask("style", c.task, func(s *canvas.Session) worker.Func {
		img := s.Snapshot()
		return func(ctx context.Context) (*pixbuf.Buffer, error) {
			defer img.Release()
			return tr.Transfer(ctx, img, style, c.params)
		}
	})
}

// anomalyCmd writes the anomaly map the configured detector produces.
type anomalyCmd struct {
	*root
	fs   *flag.FlagSet
	task taskFlags
}

func (c *anomalyCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseAnomalyCmd(args []string, r *root) (*anomalyCmd, error) {
	fs := flag.NewFlagSet("anomaly", flag.ContinueOnError)
	c := &anomalyCmd{root: r.subcommand("anomaly"), fs: fs}
	fs.Usage = usageFunc(c)
	c.task.register(fs, true)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.task.check(c.root, true); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *anomalyCmd) Run() error {
	det := &external.Command{Template: c.config.External.AnomalyCommand}
	return c.runTask("anomaly", c.task, func(s *canvas.Session) worker.Func {
		img := s.Snapshot()
		return func(ctx context.Context) (*pixbuf.Buffer, error) {
			defer img.Release()
			return det.Detect(ctx, img)
		}
	})
}

// hdrCmd merges bracketed exposures and tonemaps the result.
type hdrCmd struct {
	*root
	fs      *flag.FlagSet
	task    taskFlags
	times   []float32
	tonemap external.Tonemap
	paths   []string
}

func (c *hdrCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseHDRCmd(args []string, r *root) (*hdrCmd, error) {
	fs := flag.NewFlagSet("hdr", flag.ContinueOnError)
	c := &hdrCmd{root: r.subcommand("hdr"), fs: fs}
	fs.Usage = usageFunc(c)
	c.task.register(fs, false)
	var timesSpec, tonemap string
	fs.StringVar(&timesSpec, "times", "", "comma separated exposure times in seconds, one per image")
	fs.StringVar(&tonemap, "tonemap", external.Drago.String(), "tonemap operator: drago, reinhard or mantiuk")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	c.paths = fs.Args()
	if len(c.paths) == 0 {
		return nil, &UsageError{of: c}
	}
	if err := c.task.check(c.root, false); err != nil {
		return nil, err
	}
	var err error
	if c.tonemap, err = external.ParseTonemap(tonemap); err != nil {
		return nil, err
	}
	if c.times, err = parseTimes(timesSpec); err != nil {
		return nil, err
	}
	if len(c.times) != len(c.paths) {
		return nil, fmt.Errorf("%d images but %d exposure times", len(c.paths), len(c.times))
	}
	return c, nil
}

func parseTimes(spec string) ([]float32, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, errors.New("-times is required")
	}
	parts := strings.Split(spec, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid exposure time %q", p)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func (c *hdrCmd) Run() error {
	var m external.HDRMerger = external.ExposureMerger{}
	return c.runTask("hdr", c.task, func(*canvas.Session) worker.Func {
		return func(ctx context.Context) (*pixbuf.Buffer, error) {
			return m.Merge(ctx, c.paths, c.times, c.tonemap)
		}
	})
}
