package entity

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// CustomQuestionID is reserved for the ad-hoc question submitted with a job.
// Fixed question sets are numbered from 1.
const CustomQuestionID = 0

// NotFoundSentinel is the exact answer the answerer must give when no cited
// fragment supports an answer.
const NotFoundSentinel = "Bilgi bulunamadı."

// Question is one entry of the question index metadata.
type Question struct {
	ID     int    `json:"id"`
	Soru   string `json:"soru"`
	Yordam string `json:"yordam"`
	Text   string `json:"text"`
}

// NewQuestion builds a question and its combined embedding text.
func NewQuestion(id int, soru, yordam string) Question {
	soru = flattenLines(soru)
	yordam = flattenLines(yordam)
	return Question{
		ID:     id,
		Soru:   soru,
		Yordam: yordam,
		Text:   CombinedText(soru, yordam),
	}
}

// CombinedText is the text embedded for a question: the question alone, or the
// question followed by its rubric.
func CombinedText(soru, yordam string) string {
	if yordam == "" {
		return strings.TrimSpace("SORU: " + soru)
	}
	return strings.TrimSpace("SORU: " + soru + "\nYORDAM: " + yordam)
}

func flattenLines(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
}

// PromptRecord is the persisted prompt for one question.
type PromptRecord struct {
	Soru      string `json:"soru"`
	Yordam    string `json:"yordam"`
	Prompt    string `json:"prompt"`
	UsedCount int    `json:"-"`
}

type AnswerStatus string

const (
	AnswerStatusFound    AnswerStatus = "answer_found"
	AnswerStatusNotFound AnswerStatus = "answer_notfound"
	AnswerStatusError    AnswerStatus = "error"
)

// AnswerRecord is the persisted answer for one question.
type AnswerRecord struct {
	Soru   string `json:"soru"`
	Yordam string `json:"yordam"`
	Cevap  string `json:"cevap"`
}

// ClassifyAnswer reports whether an answer carries information or is the
// not-found sentinel.
func ClassifyAnswer(answer string) AnswerStatus {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" || trimmed == NotFoundSentinel {
		return AnswerStatusNotFound
	}
	return AnswerStatusFound
}

var citationRef = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)*)\]`)

// CitedNumbers returns the fragment numbers an answer cites as [n] or [n, m],
// ascending and without duplicates.
func CitedNumbers(answer string) []int {
	var out []int
	for _, m := range citationRef.FindAllStringSubmatch(answer, -1) {
		for _, part := range strings.Split(m[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil && n > 0 {
				out = append(out, n)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
