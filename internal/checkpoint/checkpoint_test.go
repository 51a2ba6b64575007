package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestCreate_Deterministic(t *testing.T) {
	content := map[string]string{
		"index.html":     "<html></html>",
		"index.css":      "body { margin: 0; }",
		"docs/change.md": "# Changes",
	}

	dirA := t.TempDir()
	writeFiles(t, dirA, content)
	sumA, err := Create("executor", dirA, filepath.Join(dirA, "checkpoint.json"), nil)
	require.NoError(t, err)

	// Same content in a different directory, written in a different order,
	// must produce the same content checksum.
	dirB := t.TempDir()
	writeFiles(t, dirB, map[string]string{"docs/change.md": content["docs/change.md"]})
	writeFiles(t, dirB, map[string]string{"index.css": content["index.css"]})
	writeFiles(t, dirB, map[string]string{"index.html": content["index.html"]})
	sumB, err := Create("executor", dirB, filepath.Join(dirB, "checkpoint.json"), nil)
	require.NoError(t, err)

	assert.Equal(t, sumA, sumB)
}

func TestCreate_ExcludesOwnFileAndHidden(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.html":    "<html></html>",
		".hidden":       "secret",
		".git/config":   "noise",
		"binary.dat":    string([]byte{0xff, 0xfe, 0x00, 0x01}),
		"sub/style.css": "a { color: red; }",
	})

	outPath := filepath.Join(dir, "checkpoint.json")
	sum, err := Create("planner", dir, outPath, nil)
	require.NoError(t, err)

	cp, err := Load(outPath)
	require.NoError(t, err)

	assert.Equal(t, 2, cp.TotalFiles)
	assert.Contains(t, cp.Files, "index.html")
	assert.Contains(t, cp.Files, "sub/style.css")
	assert.NotContains(t, cp.Files, ".hidden")
	assert.NotContains(t, cp.Files, "checkpoint.json")

	// Recomputing over the directory (checkpoint file now present)
	// reproduces the recorded checksum.
	again, err := Recompute(dir, outPath)
	require.NoError(t, err)
	assert.Equal(t, sum, again)
}

func TestCreate_NextAgent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"plan.json": "{}"})

	outPath := filepath.Join(dir, "checkpoint.json")
	_, err := Create("planner", dir, outPath, nil)
	require.NoError(t, err)

	cp, err := Load(outPath)
	require.NoError(t, err)
	assert.Equal(t, "planner", cp.Agent)
	assert.Equal(t, "executor", cp.NextAgent)
	assert.Equal(t, "completed", cp.Status)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.css": "body {}"})

	outPath := filepath.Join(dir, "checkpoint.json")
	sum, err := Create("executor", dir, outPath, nil)
	require.NoError(t, err)

	t.Run("matching checksum", func(t *testing.T) {
		ok, err := Validate(outPath, sum, nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty expected accepts anything", func(t *testing.T) {
		ok, err := Validate(outPath, "", nil)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("mismatch returns false without error", func(t *testing.T) {
		ok, err := Validate(outPath, "deadbeef", nil)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing file", func(t *testing.T) {
		ok, err := Validate(filepath.Join(dir, "nope.json"), "", nil)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestValidate_DetectsTampering(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"index.html": "<html></html>"})

	outPath := filepath.Join(dir, "checkpoint.json")
	sum, err := Create("executor", dir, outPath, nil)
	require.NoError(t, err)

	// Tamper with the staged file after the checkpoint was taken.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>evil</html>"), 0644))

	recomputed, err := Recompute(dir, outPath)
	require.NoError(t, err)
	assert.NotEqual(t, sum, recomputed)
}
