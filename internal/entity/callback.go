package entity

// CallbackEventType represents the type of event pushed to the outer API
type CallbackEventType string

const (
	CallbackEventTypeAnswer CallbackEventType = "answer"
	CallbackEventTypeError  CallbackEventType = "error"
)

// CallbackEvent represents an event delivered to the outer API
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// CallbackAnswerData carries a finished answer together with the prompt it was
// generated from.
type CallbackAnswerData struct {
	JobID        string       `json:"job_id"`
	ReportID     string       `json:"report_id"`
	QuestionID   int          `json:"question_id"`
	Soru         string       `json:"soru"`
	Yordam       string       `json:"yordam"`
	Prompt       string       `json:"prompt"`
	Answer       string       `json:"answer"`
	AnswerStatus AnswerStatus `json:"answer_status"`
}

// CallbackErrorData represents data for error event
type CallbackErrorData struct {
	Error CallbackErrorDetails `json:"error"`
}

// CallbackErrorDetails contains error information
type CallbackErrorDetails struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
