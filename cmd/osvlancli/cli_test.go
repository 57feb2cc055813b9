package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veesix-networks/osvlan/pkg/component"
	"github.com/veesix-networks/osvlan/pkg/config"
	"github.com/veesix-networks/osvlan/pkg/northbound"
	"github.com/veesix-networks/osvlan/pkg/sai"
	"github.com/veesix-networks/osvlan/pkg/switchapi/memory"
	"github.com/veesix-networks/osvlan/pkg/vlan"
)

func newTestCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()

	sw := memory.New(memory.Config{Ports: []string{"eth1", "eth2"}})
	svc := &sai.APIService{}
	require.NoError(t, vlan.Initialize(svc, vlan.Config{Driver: sw}))

	cfg := &config.Config{Northbound: config.Northbound{Enabled: true}}
	comp, err := northbound.NewComponent(component.Dependencies{Config: cfg, API: svc, Ports: sw})
	require.NoError(t, err)

	srv := httptest.NewServer(comp.(*northbound.Component).Handler())
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	return NewCLI(northbound.NewClient(srv.URL), &out), &out
}

func TestVlanCommands(t *testing.T) {
	cli, out := newTestCLI(t)

	require.NoError(t, cli.Exec("create vlan 100"))
	assert.Contains(t, out.String(), "VLAN 100 created")

	out.Reset()
	require.NoError(t, cli.Exec("create member vlan 100 port eth1 tagging tagged"))
	assert.Contains(t, out.String(), "eth1 tagged")

	out.Reset()
	require.NoError(t, cli.Exec("show vlan 100"))
	assert.Contains(t, out.String(), "VLAN 100, 1 member(s)")
	assert.Contains(t, out.String(), "eth1")

	out.Reset()
	require.NoError(t, cli.Exec("show vlan 100 | json"))
	var resp northbound.VlanResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Members, 1)
	memberID := resp.Members[0].ID

	out.Reset()
	require.NoError(t, cli.Exec("show member "+memberID+" | yaml"))
	assert.Contains(t, out.String(), "tagging_mode: tagged")

	out.Reset()
	require.NoError(t, cli.Exec("show vlan stats 100 in_octets"))
	assert.Contains(t, out.String(), "in_octets")
	assert.NotContains(t, out.String(), "out_octets")

	require.NoError(t, cli.Exec("set vlan 100 learn_disable true"))
	require.NoError(t, cli.Exec("clear vlan stats 100"))
	require.NoError(t, cli.Exec("delete member "+memberID))
	require.NoError(t, cli.Exec("delete vlan 100"))

	err := cli.Exec("delete vlan 100")
	require.Error(t, err)
	var apiErr *northbound.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestCommandErrors(t *testing.T) {
	cli, _ := newTestCLI(t)

	tests := []struct {
		line string
		want string
	}{
		{"bogus", "unrecognized command"},
		{"show", "incomplete command"},
		{"show vlan", "vlan required"},
		{"show vlan abc", "invalid vlan"},
		{"set vlan 10", "missing required arguments"},
		{"create member vlan 10", "missing required arguments"},
		{"create member vlan 10 port", "missing value for port"},
		{"create member vlan 10 port eth1 tagging stacked", "invalid tagging mode"},
		{"show ports | xml", "unsupported format"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			err := cli.Exec(tt.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestShowPorts(t *testing.T) {
	cli, out := newTestCLI(t)

	require.NoError(t, cli.Exec("show ports"))
	assert.Contains(t, out.String(), "eth1")
	assert.Contains(t, out.String(), "eth2")
	assert.Contains(t, out.String(), "up")
}

func TestExit(t *testing.T) {
	cli, _ := newTestCLI(t)
	require.NoError(t, cli.Exec("exit"))
	assert.False(t, cli.running)
}

func TestCompletions(t *testing.T) {
	tree := NewCommandTree()
	RegisterCommands(tree)

	tests := []struct {
		input string
		want  []string
	}{
		{"sh", []string{"show"}},
		{"show ", []string{"ports", "vlan", "member", "version"}},
		{"show v", []string{"vlan", "version"}},
		{"create member ", []string{"vlan", "port", "tagging"}},
		{"create member vlan 10 ", []string{"port", "tagging"}},
		{"create member vlan 10 tagging ", taggingModes},
		{"create member vlan 10 tagging t", []string{"tagged"}},
		{"nothing ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, tree.GetCompletions(tt.input))
		})
	}
}

func TestHelp(t *testing.T) {
	tree := NewCommandTree()
	RegisterCommands(tree)

	var out bytes.Buffer
	tree.ShowHelp(&out, "show vlan")
	assert.Contains(t, out.String(), "stats")
	assert.Contains(t, out.String(), "<vlan>")

	out.Reset()
	tree.ShowHelp(&out, "create member vlan 10 tagging")
	assert.Equal(t, "\n  untagged\n  tagged\n  priority\n\n", out.String())

	out.Reset()
	tree.ShowHelp(&out, "show ports")
	assert.True(t, strings.Contains(out.String(), "<cr>"))
}

func TestAttributeValue(t *testing.T) {
	assert.Equal(t, true, attributeValue("true"))
	assert.Equal(t, uint64(42), attributeValue("42"))
	assert.Equal(t, "tagged", attributeValue("tagged"))
}

func TestExecTimeout(t *testing.T) {
	cli, _ := newTestCLI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cli.client.Ports(ctx)
	assert.Error(t, err)
}
