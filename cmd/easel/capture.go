package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/example/easel/internal/capture"
	"github.com/example/easel/internal/clipboard"
)

// captureScreen is swapped out in tests.
var captureScreen = capture.Screen

// captureCmd saves a screenshot as a new image.
type captureCmd struct {
	*root
	fs          *flag.FlagSet
	output      string
	toClipboard bool
	list        bool
	region      string
	opts        capture.Options
}

func (c *captureCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseCaptureCmd(args []string, r *root) (*captureCmd, error) {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	c := &captureCmd{root: r.subcommand("capture"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.output, "output", "screenshot.png", "write the capture to this file path")
	fs.BoolVar(&c.toClipboard, "to-clipboard", false, "copy the capture to the clipboard instead of saving")
	fs.BoolVar(&c.toClipboard, "to-clip", false, "copy the capture to the clipboard (alias)")
	fs.BoolVar(&c.list, "list", false, "list monitors and exit")
	fs.StringVar(&c.opts.Monitor, "monitor", "", "crop to a monitor: primary, an index or part of its name")
	fs.StringVar(&c.region, "region", "", "crop to the rectangle x0,y0,x1,y1 in screen coordinates")
	fs.BoolVar(&c.opts.Interactive, "interactive", false, "let the desktop portal ask for the area")
	fs.BoolVar(&c.opts.IncludeCursor, "include-cursor", false, "embed the cursor when supported")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.region != "" {
		rect, err := parseRect(c.region)
		if err != nil {
			return nil, err
		}
		c.opts.Region = rect
	}
	c.output = c.outputPath(c.output)
	return c, nil
}

func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rectangle %q, want x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		v[i] = n
	}
	rect := image.Rect(v[0], v[1], v[2], v[3])
	if rect.Empty() {
		return image.Rectangle{}, errors.New("rectangle is empty")
	}
	return rect, nil
}

func (c *captureCmd) Run() error {
	if c.list {
		monitors, err := capture.ListMonitors()
		if err != nil {
			return err
		}
		for _, m := range monitors {
			primary := ""
			if m.Primary {
				primary = " (primary)"
			}
			fmt.Fprintf(c.stdout, "%d\t%s\t%dx%d+%d+%d%s\n", m.Index, m.Name, m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y, primary)
		}
		return nil
	}
	img, err := captureScreen(c.opts)
	if err != nil {
		return fmt.Errorf("failed to capture screen: %w", err)
	}
	if c.toClipboard {
		defer img.Release()
		if err := clipboard.Copy(img); err != nil {
			return fmt.Errorf("copy PNG to clipboard: %w", err)
		}
		c.printf("copied %dx%d capture to clipboard\n", img.Width(), img.Height())
		return nil
	}
	s, err := c.newSession(nil)
	if err != nil {
		img.Release()
		return err
	}
	defer s.Close()
	if err := s.LoadImage(img); err != nil {
		return err
	}
	if err := s.Save(c.output); err != nil {
		return err
	}
	c.printf("saved %s\n", c.output)
	return nil
}
