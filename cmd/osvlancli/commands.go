package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/veesix-networks/osvlan/pkg/northbound"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/version"
)

var (
	taggingModes = []string{"untagged", "tagged", "priority"}
	counterNames = lo.Map(sai.AllVlanStats(), func(s sai.VlanStat, _ int) string { return s.String() })
)

func RegisterCommands(tree *CommandTree) {
	tree.AddRoot([]string{"show"}, "Display switch state")
	tree.AddRoot([]string{"create"}, "Create an object")
	tree.AddRoot([]string{"delete"}, "Delete an object")
	tree.AddRoot([]string{"set"}, "Set an object attribute")
	tree.AddRoot([]string{"clear"}, "Reset counters")

	tree.AddCommand([]string{"show", "ports"},
		"Display switch ports",
		cmdShowPorts,
	)

	tree.AddCommand([]string{"show", "vlan"},
		"Display VLAN members",
		cmdShowVlan,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"show", "vlan", "stats"},
		"Display VLAN counters",
		cmdShowVlanStats,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgUserInput},
		&Argument{Name: "counter", Description: "Counter names, default all", Type: ArgOptionalInput, Values: counterNames},
	)

	tree.AddCommand([]string{"show", "member"},
		"Display a VLAN member",
		cmdShowMember,
		&Argument{Name: "member-id", Description: "Member object id", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"show", "version"},
		"Display CLI version",
		cmdShowVersion,
	)

	tree.AddCommand([]string{"create", "vlan"},
		"Create a VLAN",
		cmdCreateVlan,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"delete", "vlan"},
		"Delete a VLAN",
		cmdDeleteVlan,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"create", "member"},
		"Add a port to a VLAN",
		cmdCreateMember,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgKeywordWithValue},
		&Argument{Name: "port", Description: "Port name", Type: ArgKeywordWithValue},
		&Argument{Name: "tagging", Description: "Tagging mode, default untagged", Type: ArgKeyword, Values: taggingModes},
	)

	tree.AddCommand([]string{"delete", "member"},
		"Remove a port from a VLAN",
		cmdDeleteMember,
		&Argument{Name: "member-id", Description: "Member object id", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"set", "vlan"},
		"Set a VLAN attribute",
		cmdSetVlan,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgUserInput},
		&Argument{Name: "attribute", Description: "Attribute name", Type: ArgUserInput},
		&Argument{Name: "value", Description: "Attribute value", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"set", "member"},
		"Set a VLAN member attribute",
		cmdSetMember,
		&Argument{Name: "member-id", Description: "Member object id", Type: ArgUserInput},
		&Argument{Name: "attribute", Description: "Attribute name", Type: ArgUserInput},
		&Argument{Name: "value", Description: "Attribute value", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"clear", "vlan", "stats"},
		"Clear VLAN counters",
		cmdClearVlanStats,
		&Argument{Name: "vlan", Description: "VLAN id (1-4094)", Type: ArgUserInput},
	)

	tree.AddCommand([]string{"help"},
		"Display available commands",
		cmdHelp,
	)
}

func parseVlan(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid vlan: %s", s)
	}
	return uint16(n), nil
}

// keywordArgs reads "name value" pairs.
func keywordArgs(args []string) (map[string]string, error) {
	out := make(map[string]string)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			return nil, fmt.Errorf("missing value for %s", args[i])
		}
		out[args[i]] = args[i+1]
	}
	return out, nil
}

// attributeValue guesses the JSON type of a value typed on the command line.
func attributeValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return n
	}
	return s
}

func cmdShowPorts(ctx context.Context, cli *CLI, args []string) error {
	_, format, err := splitFormat(args)
	if err != nil {
		return err
	}
	ports, err := cli.client.Ports(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ports: %w", err)
	}
	return writeOutput(cli.out, ports, format)
}

func cmdShowVlan(ctx context.Context, cli *CLI, args []string) error {
	args, format, err := splitFormat(args)
	if err != nil {
		return err
	}
	vlan, err := parseVlan(args[0])
	if err != nil {
		return err
	}
	resp, err := cli.client.Vlan(ctx, vlan)
	if err != nil {
		return fmt.Errorf("failed to get vlan %d: %w", vlan, err)
	}
	return writeOutput(cli.out, resp, format)
}

func cmdShowVlanStats(ctx context.Context, cli *CLI, args []string) error {
	args, format, err := splitFormat(args)
	if err != nil {
		return err
	}
	vlan, err := parseVlan(args[0])
	if err != nil {
		return err
	}
	resp, err := cli.client.VlanStats(ctx, vlan, args[1:]...)
	if err != nil {
		return fmt.Errorf("failed to get vlan %d stats: %w", vlan, err)
	}
	return writeOutput(cli.out, resp, format)
}

func cmdShowMember(ctx context.Context, cli *CLI, args []string) error {
	args, format, err := splitFormat(args)
	if err != nil {
		return err
	}
	m, err := cli.client.Member(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get member %s: %w", args[0], err)
	}
	return writeOutput(cli.out, m, format)
}

func cmdShowVersion(ctx context.Context, cli *CLI, args []string) error {
	fmt.Fprintln(cli.out, "osvlancli", version.Full())
	return nil
}

func cmdCreateVlan(ctx context.Context, cli *CLI, args []string) error {
	vlan, err := parseVlan(args[0])
	if err != nil {
		return err
	}
	if err := cli.client.CreateVlan(ctx, vlan); err != nil {
		return fmt.Errorf("failed to create vlan %d: %w", vlan, err)
	}
	fmt.Fprintf(cli.out, "VLAN %d created\n", vlan)
	return nil
}

func cmdDeleteVlan(ctx context.Context, cli *CLI, args []string) error {
	vlan, err := parseVlan(args[0])
	if err != nil {
		return err
	}
	if err := cli.client.DeleteVlan(ctx, vlan); err != nil {
		return fmt.Errorf("failed to delete vlan %d: %w", vlan, err)
	}
	fmt.Fprintf(cli.out, "VLAN %d deleted\n", vlan)
	return nil
}

func cmdCreateMember(ctx context.Context, cli *CLI, args []string) error {
	kw, err := keywordArgs(args)
	if err != nil {
		return err
	}
	if kw["vlan"] == "" || kw["port"] == "" {
		return fmt.Errorf("missing required arguments: vlan, port")
	}
	vlan, err := parseVlan(kw["vlan"])
	if err != nil {
		return err
	}
	if mode := kw["tagging"]; mode != "" && !lo.Contains(taggingModes, mode) {
		return fmt.Errorf("invalid tagging mode: %s", mode)
	}

	m, err := cli.client.CreateMember(ctx, northbound.CreateMemberRequest{
		VlanID:      vlan,
		Port:        kw["port"],
		TaggingMode: kw["tagging"],
	})
	if err != nil {
		return fmt.Errorf("failed to add %s to vlan %d: %w", kw["port"], vlan, err)
	}
	fmt.Fprintf(cli.out, "Member %s created (%s %s)\n", m.ID, m.Port, m.TaggingMode)
	return nil
}

func cmdDeleteMember(ctx context.Context, cli *CLI, args []string) error {
	if err := cli.client.DeleteMember(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete member %s: %w", args[0], err)
	}
	fmt.Fprintf(cli.out, "Member %s deleted\n", args[0])
	return nil
}

func cmdSetVlan(ctx context.Context, cli *CLI, args []string) error {
	vlan, err := parseVlan(args[0])
	if err != nil {
		return err
	}
	attr := northbound.AttributeRequest{Attribute: args[1], Value: attributeValue(args[2])}
	if err := cli.client.SetVlanAttribute(ctx, vlan, attr); err != nil {
		return fmt.Errorf("failed to set vlan %d %s: %w", vlan, args[1], err)
	}
	return nil
}

func cmdSetMember(ctx context.Context, cli *CLI, args []string) error {
	attr := northbound.AttributeRequest{Attribute: args[1], Value: attributeValue(args[2])}
	if err := cli.client.SetMemberAttribute(ctx, args[0], attr); err != nil {
		return fmt.Errorf("failed to set member %s %s: %w", args[0], args[1], err)
	}
	return nil
}

func cmdClearVlanStats(ctx context.Context, cli *CLI, args []string) error {
	vlan, err := parseVlan(args[0])
	if err != nil {
		return err
	}
	if err := cli.client.ClearVlanStats(ctx, vlan); err != nil {
		return fmt.Errorf("failed to clear vlan %d stats: %w", vlan, err)
	}
	return nil
}

func cmdHelp(ctx context.Context, cli *CLI, args []string) error {
	cli.tree.ShowHelp(cli.out, "")
	return nil
}
