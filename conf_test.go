package main

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platetiler/geometry"
	"platetiler/pyramid"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conf.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConf(t *testing.T) {
	c, err := loadConf(writeConf(t, `
[output]
directory = "out"
[task]
workers = 3
resume = true
[pyramid]
name = "moon"
projection = "mercator"
level = 5
bounds = [10.0, -20.0, 30.0, 40.0]
[[sources]]
kind = "dem"
path = "moon.i16"
width = 8
height = 4
[plate]
mode = "multi"
`))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Task.Workers)
	assert.True(t, c.Task.Resume)
	assert.Equal(t, uint32(5), c.Pyramid.Level)
	assert.Equal(t, []float64{10, -20, 30, 40}, c.Pyramid.Bounds)
	assert.Equal(t, "multi", c.Plate.Mode)
	assert.Equal(t, filepath.Join("out", "moon"), c.outputRoot())
	// defaults
	assert.Equal(t, "files", c.Output.Format)
	assert.Equal(t, "none", c.Output.Compress)
	assert.Equal(t, pyramid.DefaultTemplate, c.Output.Template)

	require.Len(t, c.Sources, 1)
	assert.Equal(t, 8, c.Sources[0].Width)
	r, err := c.Sources[0].Region()
	require.NoError(t, err)
	assert.Equal(t, geometry.WholeSky, r)
}

func TestLoadConfPlateDepth(t *testing.T) {
	for _, tc := range []struct {
		mode  string
		level int
	}{{"single", 14}, {"multi", 28}, {"none", 30}} {
		_, err := loadConf(writeConf(t, fmt.Sprintf("[pyramid]\nlevel = %d\n[plate]\nmode = %q\n[[sources]]\npath = \"a.png\"\n", tc.level, tc.mode)))
		assert.NoError(t, err, tc.mode)
	}
}

func TestLoadConfMixedKinds(t *testing.T) {
	c, err := loadConf(writeConf(t, "[[sources]]\npath = \"a.png\"\n[[sources]]\nkind = \"dem\"\npath = \"b.i16\"\n"))
	require.NoError(t, err)
	assert.Len(t, c.Sources, 2)
}

func TestLoadConfRejects(t *testing.T) {
	for name, body := range map[string]string{
		"no sources":   "[pyramid]\nlevel = 2\n",
		"projection":   "[pyramid]\nprojection = \"polar\"\n[[sources]]\npath = \"a.png\"\n",
		"level":        "[pyramid]\nlevel = 31\n[[sources]]\npath = \"a.png\"\n",
		"format":       "[output]\nformat = \"zip\"\n[[sources]]\npath = \"a.png\"\n",
		"compress":     "[output]\ncompress = \"xz\"\n[[sources]]\npath = \"a.png\"\n",
		"plate mode":   "[plate]\nmode = \"double\"\n[[sources]]\npath = \"a.png\"\n",
		"kind":         "[[sources]]\nkind = \"radar\"\npath = \"a.png\"\n",
		"empty path":   "[[sources]]\nkind = \"image\"\n",
		"bounds":       "[[sources]]\npath = \"a.png\"\nbounds = [1.0, 2.0]\n",
		"bad region":   "[[sources]]\npath = \"a.png\"\nbounds = [10.0, 0.0, 5.0, 1.0]\n",
		"tiles length": "[pyramid]\ntiles = [1, 2]\n[[sources]]\npath = \"a.png\"\n",
		"same kind":    "[[sources]]\npath = \"a.png\"\n[[sources]]\nkind = \"image\"\npath = \"b.png\"\n",
		"single depth": "[pyramid]\nlevel = 15\n[plate]\nmode = \"single\"\n[[sources]]\npath = \"a.png\"\n",
		"multi depth":  "[pyramid]\nlevel = 29\n[plate]\nmode = \"multi\"\n[[sources]]\npath = \"a.png\"\n",
	} {
		_, err := loadConf(writeConf(t, body))
		assert.Error(t, err, name)
	}
}
