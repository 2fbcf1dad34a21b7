package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/example/easel/internal/filter"
)

// filterCmd applies named filters to an image file in order.
type filterCmd struct {
	*root
	fs     *flag.FlagSet
	file   string
	output string
	list   bool
	names  []string
}

func (c *filterCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseFilterCmd(args []string, r *root) (*filterCmd, error) {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	c := &filterCmd{root: r.subcommand("filter"), fs: fs}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "input image file")
	fs.StringVar(&c.output, "output", "", "output file path (defaults to input file)")
	fs.BoolVar(&c.list, "list", false, "print the filter names and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.list {
		return c, nil
	}
	c.names = fs.Args()
	if c.file == "" || len(c.names) == 0 {
		return nil, &UsageError{of: c}
	}
	if c.output == "" {
		c.output = c.file
	}
	c.output = c.outputPath(c.output)
	// Resolve names up front so a typo fails before any work is done.
	engine := c.config.FilterEngine()
	for _, name := range c.names {
		if _, err := engine.Lookup(name); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *filterCmd) Run() error {
	if c.list {
		fmt.Fprintln(c.stdout, strings.Join(filter.Names(), "\n"))
		return nil
	}
	s, err := c.newSession(nil)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.LoadFile(c.file); err != nil {
		return err
	}
	for _, name := range c.names {
		if err := s.ApplyFilterByName(name); err != nil {
			return fmt.Errorf("filter %s: %w", name, err)
		}
	}
	if err := s.Save(c.output); err != nil {
		return err
	}
	c.printf("saved %s\n", c.output)
	return nil
}
