package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/clipboard"
	"github.com/example/easel/internal/pixbuf"
	"github.com/example/easel/internal/tools"
)

var white = color.RGBA{255, 255, 255, 255}

// drawCmd replays one pointer gesture through a headless session.
type drawCmd struct {
	*root
	fs            *flag.FlagSet
	file          string
	output        string
	newSize       string
	fromClipboard bool
	toClipboard   bool
	colorSpec     string
	size          int
	erase         bool
	tool          tools.Kind
	points        []image.Point
}

func (d *drawCmd) FlagSet() *flag.FlagSet { return d.fs }

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	if r == nil {
		r = newRoot()
	}
	d := &drawCmd{root: r.subcommand("draw"), fs: fs}
	fs.Usage = usageFunc(d)
	fs.StringVar(&d.file, "file", "", "input image file")
	fs.StringVar(&d.output, "output", "", "output file path (defaults to input file)")
	fs.StringVar(&d.newSize, "new", "", "start from a white canvas of WIDTHxHEIGHT")
	fs.BoolVar(&d.fromClipboard, "from-clipboard", false, "read the input image from the clipboard")
	fs.BoolVar(&d.fromClipboard, "from-clip", false, "read the input image from the clipboard (alias)")
	fs.BoolVar(&d.toClipboard, "to-clipboard", false, "copy the result to the clipboard")
	fs.BoolVar(&d.toClipboard, "to-clip", false, "copy the result to the clipboard (alias)")
	fs.StringVar(&d.colorSpec, "color", "", "stroke or fill color name or hex value")
	fs.IntVar(&d.size, "size", 0, "tool size in pixels (1-100)")
	fs.BoolVar(&d.erase, "erase", false, "draw with the right button, which erases")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, &UsageError{of: d}
	}
	kind, err := tools.ParseKind(fs.Arg(0))
	if err != nil {
		return nil, err
	}
	d.tool = kind
	d.points, err = parsePoints(fs.Args()[1:])
	if err != nil {
		return nil, err
	}
	if d.fromClipboard {
		if d.output == "" {
			if d.file == "" {
				return nil, errors.New("output file is required when reading from the clipboard")
			}
			d.output = d.file
		}
	} else if d.file == "" && d.newSize == "" {
		return nil, errors.New("input file is required; use -file, -new or -from-clipboard")
	}
	if d.output == "" {
		if d.file == "" {
			return nil, errors.New("output file is required with -new")
		}
		d.output = d.file
	}
	d.output = d.outputPath(d.output)
	return d, nil
}

// parsePoints reads x y pairs.
func parsePoints(args []string) ([]image.Point, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, fmt.Errorf("expected x y pairs, got %d values", len(args))
	}
	vals := make([]int, len(args))
	for i, raw := range args {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		vals[i] = v
	}
	pts := make([]image.Point, 0, len(vals)/2)
	for i := 0; i < len(vals); i += 2 {
		pts = append(pts, image.Pt(vals[i], vals[i+1]))
	}
	return pts, nil
}

// parseDimensions reads WIDTHxHEIGHT.
func parseDimensions(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	return width, height, nil
}

func (d *drawCmd) loadSource(s *canvas.Session) error {
	switch {
	case d.fromClipboard:
		img, err := clipboard.Paste()
		if err != nil {
			return fmt.Errorf("read clipboard image: %w", err)
		}
		return s.LoadImage(img)
	case d.newSize != "":
		w, h, err := parseDimensions(d.newSize)
		if err != nil {
			return err
		}
		img, err := pixbuf.Filled(w, h, white)
		if err != nil {
			return err
		}
		return s.LoadImage(img)
	}
	return s.LoadFile(d.file)
}

func (d *drawCmd) Run() error {
	s, err := d.newSession(nil)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := d.loadSource(s); err != nil {
		return err
	}
	s.Tool.Kind = d.tool
	if d.colorSpec != "" {
		col, err := tools.ParseColor(d.colorSpec)
		if err != nil {
			return err
		}
		s.Tool.Color = col
	}
	if d.size != 0 {
		if err := s.Tool.SetSize(d.size); err != nil {
			return err
		}
	}
	button := canvas.Left
	if d.erase {
		button = canvas.Right
	}
	if err := gesture(s, button, d.points); err != nil {
		return err
	}
	if err := s.Save(d.output); err != nil {
		return err
	}
	d.printf("saved %s\n", d.output)
	if d.toClipboard {
		if err := clipboard.Copy(s.Active); err != nil {
			return fmt.Errorf("copy PNG to clipboard: %w", err)
		}
		d.printf("copied %s to clipboard\n", d.output)
	}
	return nil
}

// gesture presses at the first point, moves through the rest one frame each
// and releases at the last.
func gesture(s *canvas.Session, b canvas.Button, pts []image.Point) error {
	var t canvas.Tracker
	frame := func() error {
		s.SetInput(t.Sample())
		return s.Frame()
	}
	t.Move(pts[0])
	t.Press(b)
	if err := frame(); err != nil {
		return err
	}
	for _, p := range pts[1:] {
		t.Move(p)
		if err := frame(); err != nil {
			return err
		}
	}
	t.Release(b)
	return frame()
}
