package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/northbound"
	"github.com/veesix-networks/osvlan/pkg/switchapi"
	"gopkg.in/yaml.v3"
)

type OutputFormat string

const (
	FormatCLI  OutputFormat = "cli"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

// splitFormat strips a trailing "| json" or "| yaml" from args.
func splitFormat(args []string) ([]string, OutputFormat, error) {
	i := lo.IndexOf(args, "|")
	if i < 0 {
		return args, FormatCLI, nil
	}
	if i+1 >= len(args) {
		return nil, "", fmt.Errorf("output format required after '|'")
	}
	format := OutputFormat(args[i+1])
	switch format {
	case FormatCLI, FormatJSON, FormatYAML:
		return args[:i], format, nil
	}
	return nil, "", fmt.Errorf("unsupported format: %s", format)
}

func writeOutput(w io.Writer, data any, format OutputFormat) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return err
		}
		return encoder.Close()
	case FormatCLI:
		return writeTable(w, data)
	}
	return fmt.Errorf("unsupported format: %s", format)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func writeTable(w io.Writer, data any) error {
	t := newTable(w)

	switch v := data.(type) {
	case []switchapi.Port:
		if len(v) == 0 {
			fmt.Fprintln(w, "No ports")
			return nil
		}
		t.AppendHeader(table.Row{"Name", "Handle", "Link"})
		for _, p := range v {
			t.AppendRow(table.Row{p.Name, p.Handle.String(), lo.Ternary(p.LinkUp, "up", "down")})
		}

	case *northbound.VlanResponse:
		fmt.Fprintf(w, "VLAN %d, %d member(s)\n", v.VlanID, len(v.Members))
		if len(v.Members) == 0 {
			return nil
		}
		t.AppendHeader(table.Row{"Member", "Port", "Tagging"})
		for _, m := range v.Members {
			t.AppendRow(table.Row{m.ID, m.Port, m.TaggingMode})
		}

	case *northbound.Member:
		t.AppendHeader(table.Row{"Member", "VLAN", "Port", "Port Handle", "Tagging"})
		t.AppendRow(table.Row{v.ID, v.VlanID, v.Port, v.PortHandle, v.TaggingMode})

	case *northbound.StatsResponse:
		fmt.Fprintf(w, "VLAN %d counters\n", v.VlanID)
		names := lo.Keys(v.Counters)
		sort.Strings(names)
		t.AppendHeader(table.Row{"Counter", "Value"})
		for _, name := range names {
			t.AppendRow(table.Row{name, v.Counters[name]})
		}

	default:
		return writeOutput(w, data, FormatYAML)
	}

	t.Render()
	return nil
}
