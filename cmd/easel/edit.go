package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/golang/glog"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/capture"
	"github.com/example/easel/internal/clipboard"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/ui"
	"github.com/example/easel/internal/worker"
)

// editCmd opens the interactive editor window.
type editCmd struct {
	*root
	fs            *flag.FlagSet
	file          string
	output        string
	fromClipboard bool
	fromScreen    bool
	watch         bool
}

func (c *editCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	c := &editCmd{root: r.subcommand("edit"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "image to open")
	fs.StringVar(&c.output, "output", "", "file written by ctrl+s (defaults to -file)")
	fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "start from the clipboard image")
	fs.BoolVar(&c.fromClipboard, "from-clip", false, "start from the clipboard image (alias)")
	fs.BoolVar(&c.fromScreen, "from-screen", false, "start from a screenshot of the desktop")
	fs.BoolVar(&c.watch, "watch", true, "reload the configuration file when it changes")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 && c.file == "" {
		c.file = fs.Arg(0)
	}
	sources := 0
	for _, set := range []bool{c.file != "", c.fromClipboard, c.fromScreen} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("choose one of -file, -from-clipboard or -from-screen")
	}
	if c.output == "" {
		c.output = c.file
	}
	c.output = c.outputPath(c.output)
	return c, nil
}

// open installs the starting image, if any.
func (c *editCmd) open(s *canvas.Session) error {
	switch {
	case c.file != "":
		return s.LoadFile(c.file)
	case c.fromClipboard:
		img, err := clipboard.Paste()
		if err != nil {
			return fmt.Errorf("read clipboard image: %w", err)
		}
		return s.LoadImage(img)
	case c.fromScreen:
		img, err := capture.Screen(capture.Options{})
		if err != nil {
			return fmt.Errorf("failed to capture screen: %w", err)
		}
		return s.LoadImage(img)
	}
	return nil
}

func (c *editCmd) Run() error {
	pool := worker.NewPool(c.config.External.Workers)
	defer pool.Close()
	s, err := c.newSession(pool)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := c.open(s); err != nil {
		return err
	}

	ctrl := ui.NewController(s)
	ctrl.SavePath = c.output
	ctrl.Copy = clipboard.Copy
	ctrl.Paste = clipboard.Paste
	ctrl.Upscaler = upscalerFor(c.config)
	app := ui.NewApp(ctrl)

	if c.watch {
		if path := config.NewLoader(version, c.configPath).GetConfigPath(); path != "" {
			w, err := config.Watch(path, config.DefaultWatchDebounce, app.Reload, func(err error) {
				glog.Warningf("config reload: %v", err)
			})
			if err != nil {
				glog.Warningf("watch %s: %v", path, err)
			} else {
				defer w.Stop()
			}
		}
	}
	glog.Infof("editing %dx%d canvas", s.Active.Width(), s.Active.Height())
	app.Run()
	return nil
}
