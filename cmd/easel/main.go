package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/glog"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/config"
	"github.com/example/easel/internal/notify"
	"github.com/example/easel/internal/worker"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	config   *config.Config
	notifier *notify.Notifier
	stdout   io.Writer
	stderr   io.Writer

	configPath  string
	saveAlerts  bool
	filterAlert bool
	taskAlerts  bool
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) *root {
	child := *r
	child.program = strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	child.fs = nil
	return &child
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("easel", flag.ContinueOnError),
		program: "easel",
		config:  config.New(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	// glog registers on the process flag set; expose its flags here and log
	// to stderr unless told otherwise.
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		r.fs.Var(f.Value, f.Name, f.Usage)
	})
	_ = r.fs.Set("logtostderr", "true")
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "configuration file (default: $EASEL_CONFIG or ~/.config/easel/config.rc)")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", false, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.filterAlert, "notify-filter", false, "show a desktop notification after applying a filter")
	r.fs.BoolVar(&r.taskAlerts, "notify-task", false, "show a desktop notification when a background task finishes")
	r.fs.Usage = usageFunc(r)
	return r
}

// loadConfig reads the configuration file. Command line notification flags
// only ever switch notifications on.
func (r *root) loadConfig() {
	loader := config.NewLoader(version, r.configPath)
	cfg, err := loader.Load()
	if err != nil {
		glog.Warningf("failed to load config: %v", err)
		cfg = config.New()
	}
	r.config = cfg
	cfg.Notify.Save = cfg.Notify.Save || r.saveAlerts
	cfg.Notify.Filter = cfg.Notify.Filter || r.filterAlert
	cfg.Notify.Task = cfg.Notify.Task || r.taskAlerts
	r.notifier = notify.FromConfig(cfg.Notify)
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.loadConfig()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r)
	case "filter":
		cmd, err = parseFilterCmd(subArgs, r)
	case "script":
		cmd, err = parseScriptCmd(subArgs, r)
	case "hdr":
		cmd, err = parseHDRCmd(subArgs, r)
	case "upscale":
		cmd, err = parseUpscaleCmd(subArgs, r)
	case "style":
		cmd, err = parseStyleCmd(subArgs, r)
	case "anomaly":
		cmd, err = parseAnomalyCmd(subArgs, r)
	case "capture":
		cmd, err = parseCaptureCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// sessionOptions builds session options from the loaded configuration.
func (r *root) sessionOptions(pool *worker.Pool) canvas.Options {
	cfg := r.config
	opts := canvas.Options{
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Workbench:      cfg.Editor.Workbench,
		Eraser:         cfg.Editor.Eraser,
		Tool:           cfg.ToolState(),
		Filters:        cfg.FilterEngine(),
		Save:           cfg.SaveOptions(),
		Pool:           pool,
	}
	if r.notifier != nil {
		opts.OnEvent = r.notifier.Handle
	}
	return opts
}

func (r *root) newSession(pool *worker.Pool) (*canvas.Session, error) {
	return canvas.New(r.sessionOptions(pool))
}

// outputPath places bare file names under save_dir when one is configured.
func (r *root) outputPath(path string) string {
	return r.config.ResolveSavePath(path)
}

func (r *root) printf(format string, args ...any) {
	fmt.Fprintf(r.stderr, format, args...)
}

func main() {
	r := newRoot()
	err := r.Run(os.Args[1:])
	glog.Flush()
	if err != nil {
		var uerr *UsageError
		switch {
		case errors.As(err, &uerr):
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		case errors.Is(err, flag.ErrHelp):
			os.Exit(0)
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
