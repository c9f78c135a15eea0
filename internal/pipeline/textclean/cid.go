// Package textclean removes font-encoding artifacts left in extracted PDF text.
package textclean

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// cidReplacements maps the ligature glyph codes seen in the source reports to
// the letters they stand for. Order matters only for readability.
var cidReplacements = []string{
	"(cid:62)", "şt",
	"(cid:63)", "me",
	"(cid:64)", "er",
	"(cid:80)", "ti",
	"(cid:82)", "f",
	"(cid:85)", "ğ",
	"(cid:88)", "lı",
	"(cid:89)", "şi",
	"(cid:90)", "ik",
	"(cid:93)", "tf",
	"(cid:94)", "tt",
	"(cid:95)", "is",
	"(cid:97)", "tf",
	"(cid:99)", "tt",
	"(cid:101)", "tt",
	"(cid:102)", "tf",
	"(cid:109)", "ş",
	"(cid:110)", "ğ",
}

var (
	cidReplacer = strings.NewReplacer(cidReplacements...)
	cidPattern  = regexp.MustCompile(`\(cid:\d+\)`)
)

// FixCIDs substitutes known (cid:N) codes and drops the unknown ones.
// Applying it twice yields the same text.
func FixCIDs(text string) string {
	return cidPattern.ReplaceAllString(cidReplacer.Replace(text), "")
}

// CleanFile reads rawPath, fixes CID codes and writes the result into outDir
// under the same base name. It returns the written path.
func CleanFile(rawPath, outDir string) (string, error) {
	raw, err := os.ReadFile(rawPath)
	if err != nil {
		return "", fmt.Errorf("read raw text: %w", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create clean text dir: %w", err)
	}

	cleanPath := filepath.Join(outDir, filepath.Base(rawPath))
	if err := os.WriteFile(cleanPath, []byte(FixCIDs(string(raw))), 0o644); err != nil {
		return "", fmt.Errorf("write clean text: %w", err)
	}

	return cleanPath, nil
}
