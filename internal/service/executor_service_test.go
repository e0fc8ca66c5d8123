package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kodegym/kodegym/internal/dto"
	"github.com/kodegym/kodegym/internal/queue"
	"github.com/kodegym/kodegym/pkg/sandbox"
)

type stubGrader struct {
	verdict     sandbox.Verdict
	gotCode     string
	gotTestCode string
}

func (s *stubGrader) Execute(_ context.Context, code, testCode string) sandbox.Verdict {
	s.gotCode = code
	s.gotTestCode = testCode
	return s.verdict
}

func gradingRequest(t *testing.T) []byte {
	t.Helper()

	data, err := json.Marshal(dto.SubmissionRequestMessage{
		SubmissionID: "sub-123",
		LessonID:     3,
		Code:         "package main",
		TestCode:     `{"mode":"stdout","expected_output":"42"}`,
	})
	require.NoError(t, err)
	return data
}

func TestHandleSubmissionPublishesVerdict(t *testing.T) {
	grader := &stubGrader{verdict: sandbox.Verdict{Status: sandbox.StatusSuccess, Output: "42"}}
	publisher := newStubPublisher()
	svc := NewExecutorService(grader, publisher, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	require.NoError(t, svc.HandleSubmission(context.Background(), gradingRequest(t)))

	require.Equal(t, "package main", grader.gotCode)
	require.Len(t, publisher.published[dto.ResultQueue], 1)

	result, ok := publisher.published[dto.ResultQueue][0].(dto.GradingResultMessage)
	require.True(t, ok)
	require.Equal(t, "sub-123", result.SubmissionID)
	require.Equal(t, sandbox.StatusSuccess, result.Status)
	require.Equal(t, "42", result.Output)
}

func TestHandleSubmissionDropsInvalidRequest(t *testing.T) {
	grader := &stubGrader{}
	publisher := newStubPublisher()
	svc := NewExecutorService(grader, publisher, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	data, err := json.Marshal(dto.SubmissionRequestMessage{SubmissionID: "sub-123"})
	require.NoError(t, err)

	handleErr := svc.HandleSubmission(context.Background(), data)
	require.Error(t, handleErr)
	require.NotErrorIs(t, handleErr, queue.ErrRetryable)
	require.Empty(t, publisher.published)
}

func TestHandleSubmissionPublishFailureIsRetryable(t *testing.T) {
	grader := &stubGrader{verdict: sandbox.Verdict{Status: sandbox.StatusError, Output: "boom"}}
	publisher := newStubPublisher()
	publisher.err = errors.New("nats down")
	svc := NewExecutorService(grader, publisher, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())

	err := svc.HandleSubmission(context.Background(), gradingRequest(t))
	require.ErrorIs(t, err, queue.ErrRetryable)
}
