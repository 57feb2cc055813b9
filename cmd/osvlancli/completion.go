package main

import (
	"strings"

	"github.com/chzyer/readline"
)

const prompt = "osvlan> "

func (c *CLI) buildCompleter() readline.AutoCompleter {
	return &treeCompleter{tree: c.tree}
}

type treeCompleter struct {
	tree *CommandTree
}

func (tc *treeCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	input := string(line[:pos])
	completions := tc.tree.GetCompletions(input)
	if len(completions) == 0 {
		return nil, 0
	}

	partial := ""
	if !strings.HasSuffix(input, " ") {
		if i := strings.LastIndex(input, " "); i >= 0 {
			partial = input[i+1:]
		} else {
			partial = input
		}
	}

	result := make([][]rune, len(completions))
	for i, comp := range completions {
		result[i] = []rune(strings.TrimPrefix(comp, partial) + " ")
	}
	return result, len([]rune(partial))
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
