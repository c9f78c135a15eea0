// Package pdftext turns uploaded PDF files into page text using the poppler
// pdftotext tool.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const defaultTool = "pdftotext"

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH: install poppler-utils")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Extractor converts PDF files to text.
type Extractor struct {
	tool     string
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New returns an extractor that executes tool (pdftotext when empty).
func New(tool string) *Extractor {
	return NewWithRunner(tool, execRunner{})
}

// NewWithRunner is New with an injected runner.
func NewWithRunner(tool string, runner CommandRunner) *Extractor {
	if tool == "" {
		tool = defaultTool
	}
	return &Extractor{
		tool:     tool,
		runner:   runner,
		lookPath: exec.LookPath,
	}
}

// Pages returns the text of every page of the PDF at pdfPath, in order.
func (e *Extractor) Pages(ctx context.Context, pdfPath string) ([]string, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if _, err := e.lookPath(e.tool); err != nil {
		return nil, ErrPDFToolNotFound
	}

	out, err := e.runner.Run(ctx, e.tool, "-enc", "UTF-8", pdfPath, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	return splitPages(string(out)), nil
}

// ExtractToFile writes the newline-joined page text of pdfPath to
// outDir/<pdf base name>.txt and returns that path.
func (e *Extractor) ExtractToFile(ctx context.Context, pdfPath, outDir string) (string, error) {
	pages, err := e.Pages(ctx, pdfPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create raw text dir: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	txtPath := filepath.Join(outDir, base+".txt")
	if err := os.WriteFile(txtPath, []byte(strings.Join(pages, "\n")), 0o644); err != nil {
		return "", fmt.Errorf("write raw text: %w", err)
	}

	ctxzap.Info(ctx, "pdf text extracted",
		zap.String("pdf", filepath.Base(pdfPath)),
		zap.Int("pages", len(pages)),
		zap.String("output", txtPath),
	)

	return txtPath, nil
}

// splitPages splits pdftotext output on form feeds. pdftotext terminates every
// page with one, so the empty tail is dropped.
func splitPages(out string) []string {
	pages := strings.Split(out, "\f")
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	for i, p := range pages {
		pages[i] = strings.TrimRight(p, "\n")
	}
	return pages
}
