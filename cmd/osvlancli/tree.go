package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
)

type CommandHandler func(ctx context.Context, cli *CLI, args []string) error

type ArgumentType int

const (
	ArgKeyword ArgumentType = iota
	ArgUserInput
	ArgKeywordWithValue
	ArgOptionalInput
)

type Argument struct {
	Name        string
	Description string
	Type        ArgumentType
	Values      []string
}

type CommandNode struct {
	Name        string
	Description string
	Handler     CommandHandler
	Children    []*CommandNode
	Arguments   []*Argument
}

func (n *CommandNode) child(name string) *CommandNode {
	c, _ := lo.Find(n.Children, func(c *CommandNode) bool { return c.Name == name })
	return c
}

type CommandTree struct {
	root *CommandNode
}

var (
	errUnrecognized = errors.New("unrecognized command")
	errIncomplete   = errors.New("incomplete command")
)

func NewCommandTree() *CommandTree {
	return &CommandTree{root: &CommandNode{Name: "root"}}
}

// AddRoot describes an intermediate keyword such as "show".
func (t *CommandTree) AddRoot(path []string, description string) {
	node := t.walkOrCreate(path)
	if node.Description == "" {
		node.Description = description
	}
}

func (t *CommandTree) AddCommand(path []string, description string, handler CommandHandler, args ...*Argument) {
	node := t.walkOrCreate(path)
	node.Description = description
	node.Handler = handler
	node.Arguments = args
}

func (t *CommandTree) walkOrCreate(path []string) *CommandNode {
	current := t.root
	for _, part := range path {
		next := current.child(part)
		if next == nil {
			next = &CommandNode{Name: part}
			current.Children = append(current.Children, next)
		}
		current = next
	}
	return current
}

// resolve walks tokens down the tree and returns the deepest node reached
// and how many tokens were consumed.
func (t *CommandTree) resolve(tokens []string) (*CommandNode, int) {
	current := t.root
	for i, token := range tokens {
		next := current.child(token)
		if next == nil {
			return current, i
		}
		current = next
	}
	return current, len(tokens)
}

func (t *CommandTree) Execute(ctx context.Context, cli *CLI, input string) error {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return nil
	}

	node, depth := t.resolve(tokens)
	if node == t.root {
		return errUnrecognized
	}
	if node.Handler == nil {
		if depth < len(tokens) {
			return errUnrecognized
		}
		return errIncomplete
	}

	args := tokens[depth:]
	if err := validateArguments(node, args); err != nil {
		return err
	}
	return node.Handler(ctx, cli, args)
}

func validateArguments(cmd *CommandNode, args []string) error {
	required := lo.FilterMap(cmd.Arguments, func(a *Argument, _ int) (string, bool) {
		return a.Name, a.Type == ArgUserInput
	})

	actual := len(args)
	if i := lo.IndexOf(args, "|"); i >= 0 {
		actual = i
	}

	if actual < len(required) {
		if len(required) == 1 {
			return fmt.Errorf("%s required", required[0])
		}
		return fmt.Errorf("missing required arguments: %s", strings.Join(required, ", "))
	}
	return nil
}

func (t *CommandTree) GetCompletions(input string) []string {
	tokens := strings.Fields(input)
	endsWithSpace := strings.HasSuffix(input, " ")

	prefix := ""
	if !endsWithSpace && len(tokens) > 0 {
		prefix = tokens[len(tokens)-1]
		tokens = tokens[:len(tokens)-1]
	}

	node, depth := t.resolve(tokens)
	argTokens := tokens[depth:]
	if len(argTokens) > 0 && node.Handler == nil {
		return nil
	}

	var completions []string
	if len(argTokens) == 0 {
		for _, c := range node.Children {
			if strings.HasPrefix(c.Name, prefix) {
				completions = append(completions, c.Name)
			}
		}
	}

	if node.Handler != nil {
		if len(argTokens) > 0 {
			last := argTokens[len(argTokens)-1]
			if arg, ok := lo.Find(node.Arguments, func(a *Argument) bool { return a.Name == last }); ok {
				if arg.Type == ArgKeyword && len(arg.Values) > 0 {
					return lo.Filter(arg.Values, func(v string, _ int) bool { return strings.HasPrefix(v, prefix) })
				}
				if arg.Type == ArgKeywordWithValue {
					return nil
				}
			}
		}
		for _, arg := range node.Arguments {
			if arg.Type == ArgUserInput || arg.Type == ArgOptionalInput || lo.Contains(argTokens, arg.Name) {
				continue
			}
			if strings.HasPrefix(arg.Name, prefix) {
				completions = append(completions, arg.Name)
			}
		}
	}

	return completions
}

func (t *CommandTree) ShowHelp(w io.Writer, input string) {
	tokens := strings.Fields(input)
	node, depth := t.resolve(tokens)
	argTokens := tokens[depth:]

	if len(argTokens) > 0 && node.Handler != nil {
		last := argTokens[len(argTokens)-1]
		if arg, ok := lo.Find(node.Arguments, func(a *Argument) bool { return a.Name == last }); ok {
			switch {
			case arg.Type == ArgKeyword && len(arg.Values) > 0:
				fmt.Fprintln(w)
				for _, v := range arg.Values {
					fmt.Fprintf(w, "  %s\n", v)
				}
				fmt.Fprintln(w)
				return
			case arg.Type == ArgKeywordWithValue:
				fmt.Fprintf(w, "\n  <value>  %s\n\n", arg.Description)
				return
			}
		}
	}

	if len(node.Children) > 0 || len(node.Arguments) > 0 {
		fmt.Fprintln(w)
		for _, c := range node.Children {
			fmt.Fprintf(w, "  %-20s %s\n", c.Name, c.Description)
		}
		for _, arg := range node.Arguments {
			if lo.Contains(argTokens, arg.Name) {
				continue
			}
			switch arg.Type {
			case ArgUserInput:
				fmt.Fprintf(w, "  %-20s %s\n", "<"+arg.Name+">", arg.Description)
			case ArgOptionalInput:
				fmt.Fprintf(w, "  %-20s %s\n", "["+arg.Name+"]", arg.Description)
			default:
				fmt.Fprintf(w, "  %-20s %s\n", arg.Name, arg.Description)
			}
		}
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "\n  <cr>")
}
