// Package questions reads the fixed question set of a report.
package questions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/futig/report-grounder/internal/entity"
	"gopkg.in/yaml.v3"
)

const emptyRubric = "[Boş]"

var (
	blockSeparator = strings.Repeat("-", 30)
	blockPattern   = regexp.MustCompile(`(?s)SORU\s+(\d+):\s*(.*?)\nYORDAM\s+(\d+):\s*(.*)`)
)

type item struct {
	ID     int    `json:"id" yaml:"id"`
	Soru   string `json:"soru" yaml:"soru"`
	Yordam string `json:"yordam" yaml:"yordam"`
}

// LoadFile reads and parses the question file at path.
func LoadFile(path string) ([]entity.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return Parse(data)
}

// Parse accepts a JSON array, a YAML list or the dash-separated SORU/YORDAM
// block format, tried in that order. List entries without an explicit id take
// the smallest unused ids from 1 in file order.
func Parse(data []byte) ([]entity.Question, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, entity.ErrNoQuestions
	}

	var items []item
	if err := json.Unmarshal(data, &items); err == nil {
		return fromItems(items)
	}
	if err := yaml.Unmarshal(data, &items); err == nil && len(items) > 0 {
		return fromItems(items)
	}

	return parseBlocks(string(data))
}

func fromItems(items []item) ([]entity.Question, error) {
	taken := make(map[int]bool, len(items))
	for _, it := range items {
		if it.ID != 0 {
			taken[it.ID] = true
		}
	}

	out := make([]entity.Question, 0, len(items))
	next := 1
	for _, it := range items {
		id := it.ID
		if id == 0 {
			for taken[next] {
				next++
			}
			id = next
			taken[id] = true
		}
		out = append(out, entity.NewQuestion(id, it.Soru, it.Yordam))
	}
	return finish(out)
}

func parseBlocks(raw string) ([]entity.Question, error) {
	var out []entity.Question
	for _, block := range strings.Split(raw, blockSeparator) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		m := blockPattern.FindStringSubmatch(block)
		if m == nil || m[1] != m[3] {
			continue
		}

		id, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("%w: question id %q", entity.ErrInvalidFormat, m[1])
		}

		yordam := strings.TrimSpace(m[4])
		if strings.Contains(yordam, emptyRubric) {
			yordam = ""
		}
		out = append(out, entity.NewQuestion(id, m[2], yordam))
	}
	return finish(out)
}

func finish(qs []entity.Question) ([]entity.Question, error) {
	if len(qs) == 0 {
		return nil, entity.ErrNoQuestions
	}

	seen := make(map[int]struct{}, len(qs))
	for _, q := range qs {
		if q.ID < 1 {
			return nil, fmt.Errorf("%w: question id %d is reserved", entity.ErrInvalidFormat, q.ID)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", entity.ErrInvalidFormat, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return qs, nil
}
