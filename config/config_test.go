package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelyDataflow/timely-dataflow-sub000/config"
)

func TestParseMode(t *testing.T) {
	m, err := config.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, config.Eager, m)

	m, err = config.ParseMode("demand")
	require.NoError(t, err)
	assert.Equal(t, config.Demand, m)

	_, err = config.ParseMode("bogus")
	assert.Error(t, err)
}

func TestParamTypedAccessor(t *testing.T) {
	c := config.Config{Params: map[string]any{"batch": 64, "name": "sub000"}}

	batch, ok := config.Param[int](c, "batch")
	assert.True(t, ok)
	assert.Equal(t, 64, batch)

	_, ok = config.Param[string](c, "batch")
	assert.False(t, ok, "wrong type should miss, not panic")

	_, ok = config.Param[int](c, "missing")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	base := config.Config{
		Threads:   1,
		Index:     0,
		Processes: 2,
		Peers:     []config.Peer{{Addr: "a:1"}, {Addr: "b:2"}},
	}
	assert.NoError(t, base.Validate())

	bad := base
	bad.Index = 2
	assert.Error(t, bad.Validate())

	bad = base
	bad.Peers = base.Peers[:1]
	assert.Error(t, bad.Validate())

	bad = base
	bad.Threads = 0
	assert.Error(t, bad.Validate())
}

func TestLoadHostFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hosts.toml")
	doc := "[[peer]]\naddr = \"10.0.0.1:9000\"\n\n[[peer]]\naddr = \"10.0.0.2:9000\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	peers, err := config.LoadHostFile(path)
	require.NoError(t, err)
	require.Len(t, peers, 2)
	assert.Equal(t, "10.0.0.1:9000", peers[0].Addr)
	assert.Equal(t, "10.0.0.2:9000", peers[1].Addr)
}
