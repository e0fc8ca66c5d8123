package dto

// Queue subjects carried by the LEARNING stream.
const (
	SubmissionQueue = "submission_queue"
	ResultQueue     = "result_queue"
	AIEventQueue    = "ai_event_queue"
)

// SubmissionRequestMessage asks the executor to grade one submission.
// Published by the core service, consumed by the executor worker.
type SubmissionRequestMessage struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	LessonID     uint   `json:"lesson_id" validate:"required"`
	Code         string `json:"code" validate:"required"`
	TestCode     string `json:"test_code"`
}

// GradingResultMessage carries the executor's verdict back to the core.
type GradingResultMessage struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=success error"`
	Output       string `json:"output"`
}

// TestResultPayload wraps the raw output of the failed run.
type TestResultPayload struct {
	OutputLog string `json:"output_log"`
}

// LessonContextPayload carries the lesson material needed to enrich an error
// event: the descriptive text for embedding and the construct expectations
// for the gap check.
type LessonContextPayload struct {
	LessonContent      string   `json:"lesson_content" validate:"required"`
	TestCode           string   `json:"test_code"`
	ExpectedConstructs []string `json:"expected_constructs"`
}

// ErrorEventMessage describes one graded failure for the ingestion pipeline.
// Published by the core service, consumed by the recommendation service.
type ErrorEventMessage struct {
	UserID        uint                 `json:"user_id" validate:"required"`
	LessonID      uint                 `json:"lesson_id" validate:"required"`
	UserCode      string               `json:"user_code" validate:"required"`
	TestResult    TestResultPayload    `json:"test_result"`
	LessonContext LessonContextPayload `json:"lesson_context" validate:"required"`
}
