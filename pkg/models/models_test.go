package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"Model1", "Model2"}, table.Names())

	e, ok := table.Lookup("Model1")
	require.True(t, ok)
	assert.Equal(t, Entry{
		Model:      "Model1",
		User:       "user_model1",
		Password:   "pwd_model1",
		RemotePath: "/log/data1.txt",
		Protocol:   ProtocolFTP,
	}, e)

	e, ok = table.Lookup("Model2")
	require.True(t, ok)
	assert.Equal(t, "/data/report.csv", e.RemotePath)
}

func TestLookupUnknown(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	_, ok := table.Lookup("ModelX")
	assert.False(t, ok)
	// lookups are case sensitive, matching the master data exactly
	_, ok = table.Lookup("model1")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	content := `models:
  PLC-A:
    user: plc
    password: secret
    remote_path: /var/log/plc.log
    port: 2121
  Gateway:
    protocol: sftp
    user: gw
    key_file: /etc/keys/gw
    remote_path: /data/dump.bin
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	plc, ok := table.Lookup("PLC-A")
	require.True(t, ok)
	assert.Equal(t, ProtocolFTP, plc.Protocol)
	assert.Equal(t, 2121, plc.Port)

	gw, ok := table.Lookup("Gateway")
	require.True(t, ok)
	assert.Equal(t, ProtocolSFTP, gw.Protocol)
	assert.Equal(t, "/etc/keys/gw", gw.KeyFile)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"not yaml", "models: [", "failed to parse YAML"},
		{"empty", "models: {}", "no models defined"},
		{"missing user", "models:\n  M:\n    remote_path: /a\n", "user is required"},
		{"missing remote path", "models:\n  M:\n    user: u\n", "remote_path is required"},
		{"bad protocol", "models:\n  M:\n    user: u\n    remote_path: /a\n    protocol: tftp\n", "unsupported protocol"},
		{"key file with ftp", "models:\n  M:\n    user: u\n    remote_path: /a\n    key_file: k\n", "only valid with protocol sftp"},
		{"bad port", "models:\n  M:\n    user: u\n    remote_path: /a\n    port: 70000\n", "invalid port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
