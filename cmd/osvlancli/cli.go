package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/veesix-networks/osvlan/pkg/northbound"
)

type CLI struct {
	client      *northbound.Client
	rl          *readline.Instance
	out         io.Writer
	running     bool
	tree        *CommandTree
	currentLine string
	timeout     time.Duration
}

func NewCLI(client *northbound.Client, out io.Writer) *CLI {
	c := &CLI{
		client:  client,
		out:     out,
		running: true,
		tree:    NewCommandTree(),
		timeout: 10 * time.Second,
	}
	RegisterCommands(c.tree)
	return c
}

func (c *CLI) Run() error {
	var err error
	c.rl, err = readline.NewEx(&readline.Config{
		Prompt:              prompt,
		HistoryFile:         os.ExpandEnv("$HOME/.osvlancli_history"),
		AutoComplete:        c.buildCompleter(),
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		FuncFilterInputRune: c.filterInputWithHelp,
		Listener:            c,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer c.rl.Close()

	c.printBanner()

	for c.running {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					break
				}
				continue
			} else if err == io.EOF {
				break
			}
			return err
		}

		if err := c.Exec(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	return nil
}

func (c *CLI) Stop() {
	c.running = false
}

func (c *CLI) printBanner() {
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintln(c.out, "    osvlan Interactive CLI")
	fmt.Fprintln(c.out, "=====================================")
	fmt.Fprintf(c.out, "Connected to: %s\n", c.client.BaseURL())
	fmt.Fprintln(c.out, "Type '?' for available commands")
	fmt.Fprintln(c.out, "Type 'exit' or 'quit' to exit")
	fmt.Fprintln(c.out)
}

func (c *CLI) OnChange(line []rune, pos int, key rune) (newLine []rune, newPos int, ok bool) {
	c.currentLine = string(line)
	return nil, 0, false
}

func (c *CLI) filterInputWithHelp(r rune) (rune, bool) {
	if r == '?' {
		fmt.Fprint(c.out, "?\n")
		c.showInlineHelp(c.currentLine)
		c.rl.Write([]byte(c.currentLine))
		return 0, false
	}
	return filterInput(r)
}

func (c *CLI) showInlineHelp(input string) {
	if input == "" || strings.HasSuffix(input, " ") {
		c.tree.ShowHelp(c.out, strings.TrimSpace(input))
		return
	}
	completions := c.tree.GetCompletions(input)
	if len(completions) == 0 {
		c.tree.ShowHelp(c.out, input)
		return
	}
	fmt.Fprintln(c.out)
	for _, comp := range completions {
		fmt.Fprintf(c.out, "  %s\n", comp)
	}
	fmt.Fprintln(c.out)
}

// Exec runs a single command line.
func (c *CLI) Exec(line string) error {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return nil
	case line == "exit" || line == "quit":
		c.running = false
		return nil
	case strings.HasSuffix(line, "?"):
		c.showInlineHelp(strings.TrimSuffix(line, "?"))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	return c.tree.Execute(ctx, c, line)
}
