package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetHasGetString(t *testing.T) {
	c := New(nil)
	assert.False(t, c.Has("model"))

	c.Set("model", "Battery")
	assert.True(t, c.Has("model"))

	v, err := c.GetString("model")
	require.NoError(t, err)
	assert.Equal(t, "Battery", v)
}

func TestGetStringFailsOnMissingOrMultiValue(t *testing.T) {
	c := New(nil)
	_, err := c.GetString("missing")
	assert.Error(t, err)

	c.Set("multi", "a", "b")
	_, err = c.GetString("multi")
	assert.Error(t, err)
}

func TestGetDoubleAndVector(t *testing.T) {
	c := New(nil)
	c.Set("Model.ProcessNoise", "1.0", "2.5", "3")

	v, err := c.GetDoubleVector("Model.ProcessNoise", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 2.5, 3.0}, v)

	_, err = c.GetDoubleVector("Model.ProcessNoise", 4)
	assert.Error(t, err, "wantLen mismatch must fail")

	c.Set("Predictor.Horizon", "100000")
	d, err := c.GetDouble("Predictor.Horizon")
	require.NoError(t, err)
	assert.Equal(t, 100000.0, d)
}

func TestGetIntParsesU64(t *testing.T) {
	c := New(nil)
	c.Set("Predictor.SampleCount", "100")
	n, err := c.GetInt("Predictor.SampleCount")
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestRequireKeysReportsFirstMissing(t *testing.T) {
	c := New(nil)
	c.Set("a", "1")
	err := c.RequireKeys("a", "b")
	assert.Error(t, err)
	assert.NoError(t, c.RequireKeys("a"))
}

// TestLoadFileImportOverride is end-to-end scenario 6 (spec §8): a
// config file importing two others, where later imports override
// earlier bindings for the same key.
func TestLoadFileImportOverride(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "a.cfg", "k : v1\n")
	writeFile(t, dir, "b.cfg", "k : v2\n")
	writeFile(t, dir, "main.cfg", "importConfig : a.cfg, b.cfg\n")

	c := New(NewSearchPath(dir))
	require.NoError(t, c.LoadFile(filepath.Join(dir, "main.cfg")))

	v, err := c.GetString("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v, "later import overrides earlier")
}

func TestLoadFileSkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.cfg", "# a comment\n\nmodel : Battery\n")

	c := New(NewSearchPath(dir))
	require.NoError(t, c.LoadFile(filepath.Join(dir, "main.cfg")))

	v, err := c.GetString("model")
	require.NoError(t, err)
	assert.Equal(t, "Battery", v)
}

func TestLoadFileDetectsCyclicImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cfg", "importConfig : b.cfg\n")
	writeFile(t, dir, "b.cfg", "importConfig : a.cfg\n")

	c := New(NewSearchPath(dir))
	err := c.LoadFile(filepath.Join(dir, "a.cfg"))
	assert.Error(t, err)
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}
