package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/easel/internal/script"
)

// interactiveCmd reads Lua statements line by line and runs each against one
// session, so state carries from line to line.
type interactiveCmd struct {
	*root
	fs    *flag.FlagSet
	file  string
	execs commandList
	stdin io.Reader
}

func (c *interactiveCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ContinueOnError)
	c := &interactiveCmd{root: r.subcommand("interactive"), fs: fs, stdin: os.Stdin}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "image to load before reading commands")
	fs.Var(&c.execs, "e", "execute a statement in immediate mode (may be specified multiple times)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *interactiveCmd) Run() error {
	s, err := c.openSession(c.file)
	if err != nil {
		return err
	}
	defer s.Close()
	cfg := script.DefaultConfig()
	cfg.Stdout = c.stdout
	runner, err := script.New(s, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	if len(c.execs) > 0 {
		for i, line := range c.execs {
			if err := runner.RunString(fmt.Sprintf("-e#%d", i+1), line); err != nil {
				return err
			}
		}
		return nil
	}

	fmt.Fprintln(c.stdout, "Enter Lua statements using the easel table (type 'exit' to quit)")
	scanner := bufio.NewScanner(c.stdin)
	n := 0
	for {
		fmt.Fprint(c.stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		n++
		if err := runner.RunString(fmt.Sprintf("line %d", n), line); err != nil {
			fmt.Fprintln(c.stderr, err)
		}
	}
	return scanner.Err()
}
