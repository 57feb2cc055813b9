package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
logging:
  level: debug
  components:
    switchapi.vpp: warn
switch:
  driver: memory
  memory:
    ports: [eth1, eth2, eth3]
vlans:
  - id: 10
    members:
      - port: eth1
      - port: eth2
        tagging: tagged
  - id: 20
northbound:
  enabled: true
exporter:
  enabled: true
  vlans: ["10", "20-21"]
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osvlan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "warn", cfg.Logging.Components["switchapi.vpp"])
	assert.Equal(t, DriverMemory, cfg.Switch.Driver)
	assert.Equal(t, DefaultVPPAPISocket, cfg.Switch.VPP.APISocket)
	assert.Equal(t, time.Second, cfg.Switch.VPP.ConnectInterval)
	assert.Equal(t, "untagged", cfg.Vlans[0].Members[0].Tagging)
	assert.Equal(t, "tagged", cfg.Vlans[0].Members[1].Tagging)
	assert.Equal(t, DefaultNorthboundAddress, cfg.Northbound.ListenAddress)

	vlans, err := cfg.ExporterVlans()
	require.NoError(t, err)
	assert.Equal(t, []uint16{10, 20, 21}, vlans)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")
}

func TestParseDurations(t *testing.T) {
	cfg, err := Parse([]byte(`
switch:
  driver: vpp
  vpp:
    connect_retries: 3
    connect_interval: 250ms
`))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), cfg.Switch.VPP.ConnectRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Switch.VPP.ConnectInterval)
	assert.Equal(t, DefaultBridge, cfg.Switch.LinuxBridge.Bridge)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown driver",
			yaml:    "switch: {driver: asic}",
			wantErr: "unknown driver 'asic'",
		},
		{
			name:    "memory driver without ports",
			yaml:    "switch: {driver: memory}",
			wantErr: "switch.memory.ports",
		},
		{
			name:    "duplicate memory ports",
			yaml:    "switch: {memory: {ports: [eth1, eth1]}}",
			wantErr: "duplicate ports [eth1]",
		},
		{
			name:    "vlan out of range",
			yaml:    "switch: {driver: vpp}\nvlans: [{id: 4095}]",
			wantErr: "vlans[0].id",
		},
		{
			name:    "vlan zero",
			yaml:    "switch: {driver: vpp}\nvlans: [{id: 0}]",
			wantErr: "vlans[0].id",
		},
		{
			name:    "duplicate vlans",
			yaml:    "switch: {driver: vpp}\nvlans: [{id: 10}, {id: 10}]",
			wantErr: "duplicate ids [10]",
		},
		{
			name:    "bad tagging",
			yaml:    "switch: {driver: vpp}\nvlans: [{id: 10, members: [{port: eth1, tagging: stacked}]}]",
			wantErr: "vlans[0].members[0].tagging",
		},
		{
			name:    "member without port",
			yaml:    "switch: {driver: vpp}\nvlans: [{id: 10, members: [{tagging: tagged}]}]",
			wantErr: "vlans[0].members[0].port",
		},
		{
			name:    "duplicate member ports",
			yaml:    "switch: {driver: vpp}\nvlans: [{id: 10, members: [{port: eth1}, {port: eth1, tagging: tagged}]}]",
			wantErr: "vlans[0].members: duplicate ports",
		},
		{
			name:    "bad exporter range",
			yaml:    "switch: {driver: vpp}\nexporter: {vlans: [\"20-10\"]}",
			wantErr: "exporter.vlans",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseVLANRange(t *testing.T) {
	tests := []struct {
		in      string
		want    []uint16
		wantErr bool
	}{
		{in: "100", want: []uint16{100}},
		{in: " 7 - 9 ", want: []uint16{7, 8, 9}},
		{in: "4094", want: []uint16{4094}},
		{in: "0", wantErr: true},
		{in: "4095", wantErr: true},
		{in: "10-5", wantErr: true},
		{in: "1-2-3", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVLANRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
