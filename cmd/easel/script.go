package main

import (
	"flag"
	"strings"

	"github.com/example/easel/internal/canvas"
	"github.com/example/easel/internal/script"
)

// scriptCmd runs a Lua file against a headless session.
type scriptCmd struct {
	*root
	fs     *flag.FlagSet
	file   string
	output string
	cpu    uint64
	memory uint64
	path   string
}

func (c *scriptCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseScriptCmd(args []string, r *root) (*scriptCmd, error) {
	fs := flag.NewFlagSet("script", flag.ContinueOnError)
	c := &scriptCmd{root: r.subcommand("script"), fs: fs}
	fs.Usage = usageFunc(c)
	defaults := script.DefaultConfig()
	fs.StringVar(&c.file, "file", "", "image to load before the script runs")
	fs.StringVar(&c.output, "output", "", "save the canvas here after the script finishes")
	fs.Uint64Var(&c.cpu, "cpu-limit", defaults.CPULimit, "Lua instruction budget (0 for unlimited)")
	fs.Uint64Var(&c.memory, "memory-limit", defaults.MemoryLimit, "Lua memory budget in bytes (0 for unlimited)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: c}
	}
	c.path = fs.Arg(0)
	c.output = c.outputPath(c.output)
	return c, nil
}

func (c *scriptCmd) scriptConfig() script.Config {
	return script.Config{CPULimit: c.cpu, MemoryLimit: c.memory, Stdout: c.stdout}
}

// openSession builds a session, loading file when one is given.
func (r *root) openSession(file string) (*canvas.Session, error) {
	s, err := r.newSession(nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(file) != "" {
		if err := s.LoadFile(file); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (c *scriptCmd) Run() error {
	s, err := c.openSession(c.file)
	if err != nil {
		return err
	}
	defer s.Close()
	runner, err := script.New(s, c.scriptConfig())
	if err != nil {
		return err
	}
	defer runner.Close()
	if err := runner.RunFile(c.path); err != nil {
		return err
	}
	if c.output != "" {
		if err := s.Save(c.output); err != nil {
			return err
		}
		c.printf("saved %s\n", c.output)
	}
	return nil
}

// commandList collects repeated string flags.
type commandList []string

func (c *commandList) String() string {
	return strings.Join(*c, ";")
}

func (c *commandList) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var _ flag.Value = (*commandList)(nil)
