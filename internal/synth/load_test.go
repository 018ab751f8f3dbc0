package synth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterDirReadsConventionalLayout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "labelled_supertree"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "annotated_supertree"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labelled_supertree", "labelled_supertree.tre"), []byte(s1Newick), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "annotated_supertree", "annotations.json"),
		[]byte(`{"nodes":{"ott1":{"supported_by":{"study1":"node1"}}}}`), 0o644))

	store := NewStore()
	tree, err := store.RegisterDir("synth-1.2", dir, DirLayout{}, nil)
	require.NoError(t, err)
	require.Equal(t, "synth-1.2", tree.SynthID)

	root := tree.Root()
	_, ok := root.SupportedBy()
	require.True(t, ok)
}

func TestRegisterDirMissingTreeFileFails(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()
	_, err := store.RegisterDir("synth-1.2", dir, DirLayout{}, nil)
	require.Error(t, err)
}

func TestRegisterDirToleratesMissingSideTables(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "labelled_supertree"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labelled_supertree", "labelled_supertree.tre"), []byte(s1Newick), 0o644))

	store := NewStore()
	tree, err := store.RegisterDir("synth-1.2", dir, DirLayout{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, tree.Intern.Len())
}
