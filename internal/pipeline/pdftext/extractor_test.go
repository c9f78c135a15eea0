package pdftext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	output []byte
	err    error
	name   string
	args   []string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.name = name
	m.args = args
	return m.output, m.err
}

func newTestExtractor(runner CommandRunner) *Extractor {
	e := NewWithRunner("", runner)
	e.lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	return e
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rapor2023.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestPages_SplitsOnFormFeed(t *testing.T) {
	runner := &mockRunner{output: []byte("Birinci sayfa.\n\fİkinci sayfa.\n\f")}
	e := newTestExtractor(runner)
	pdf := writePDF(t)

	pages, err := e.Pages(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Birinci sayfa.", "İkinci sayfa."}, pages)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, []string{"-enc", "UTF-8", pdf, "-"}, runner.args)
}

func TestExtractToFile(t *testing.T) {
	runner := &mockRunner{output: []byte("A\fB\f")}
	e := newTestExtractor(runner)
	pdf := writePDF(t)
	outDir := filepath.Join(t.TempDir(), "raw_txt")

	path, err := e.ExtractToFile(context.Background(), pdf, outDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "rapor2023.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\nB", string(data))
}

func TestPages_RunnerError(t *testing.T) {
	e := newTestExtractor(&mockRunner{err: errors.New("pdftotext crashed")})

	_, err := e.Pages(context.Background(), writePDF(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPages_ToolMissing(t *testing.T) {
	e := NewWithRunner("", &mockRunner{})
	e.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := e.Pages(context.Background(), writePDF(t))
	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestPages_MissingPDF(t *testing.T) {
	e := newTestExtractor(&mockRunner{})

	_, err := e.Pages(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
