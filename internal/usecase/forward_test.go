package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-forwarder/internal/domain"
)

type stubPredictor struct {
	reply    string
	err      error
	captured []domain.ChatMessage
	calls    int
}

func (s *stubPredictor) Predict(_ context.Context, messages []domain.ChatMessage) (string, error) {
	s.calls++
	s.captured = messages
	return s.reply, s.err
}

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

type cutOffErr struct{}

func (cutOffErr) Error() string   { return "read response body: unexpected EOF" }
func (cutOffErr) Transport() bool { return true }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial tcp: i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func newService(t *testing.T, p Predictor) *ForwardService {
	t.Helper()
	s, err := NewForwardService(p, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestNewForwardService_ValidatesDependency(t *testing.T) {
	_, err := NewForwardService(nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestNewForwardService_DefaultsLogger(t *testing.T) {
	s, err := NewForwardService(&stubPredictor{}, nil)
	require.NoError(t, err)
	require.NotNil(t, s.log)
}

func TestForward_AppendsUserThenAssistant(t *testing.T) {
	p := &stubPredictor{reply: "I'm fine"}
	s := newService(t, p)

	history := domain.History{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello!"},
	}
	out, err := s.Forward(context.Background(), ForwardInput{Message: "how are you?", History: history})
	require.NoError(t, err)

	require.Equal(t, "I'm fine", out.Response)
	require.Equal(t, domain.History{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello!"},
		{Role: domain.RoleUser, Content: "how are you?"},
		{Role: domain.RoleAssistant, Content: "I'm fine"},
	}, out.History)

	require.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello!"},
		{Role: domain.RoleUser, Content: "how are you?"},
	}, p.captured)
	require.Len(t, history, 2, "input history must not grow")
}

func TestForward_EmptyHistory(t *testing.T) {
	p := &stubPredictor{reply: "hello!"}
	out, err := newService(t, p).Forward(context.Background(), ForwardInput{Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, domain.History{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello!"},
	}, out.History)
}

func TestForward_WhitespaceMessageIsForwarded(t *testing.T) {
	p := &stubPredictor{reply: "hello!"}
	out, err := newService(t, p).Forward(context.Background(), ForwardInput{Message: "   "})
	require.NoError(t, err)
	require.Equal(t, 1, p.calls)
	require.Equal(t, domain.History{
		{Role: domain.RoleUser, Content: "   "},
		{Role: domain.RoleAssistant, Content: "hello!"},
	}, out.History)
}

func TestForward_RejectsBeforeCallingPredictor(t *testing.T) {
	cases := []struct {
		name   string
		in     ForwardInput
		reason string
	}{
		{name: "empty message", in: ForwardInput{Message: ""}, reason: "empty_message"},
		{
			name:   "unknown role",
			in:     ForwardInput{Message: "hi", History: domain.History{{Role: "system", Content: "x"}}},
			reason: "invalid_history_role",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubPredictor{reply: "unused"}
			_, err := newService(t, p).Forward(context.Background(), tc.in)

			var ucErr *Error
			require.ErrorAs(t, err, &ucErr)
			require.Equal(t, ErrorParse, ucErr.Kind)
			require.Equal(t, tc.reason, ucErr.Reason)
			require.Zero(t, p.calls)
		})
	}
}

func TestForward_ClassifiesPredictorErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind ErrorKind
	}{
		{name: "status", err: fmt.Errorf("wrapped: %w", &statusErr{code: 503}), kind: ErrorUpstream},
		{name: "network", err: fmt.Errorf("post: %w", timeoutErr{}), kind: ErrorTransport},
		{name: "body cut off", err: fmt.Errorf("predict: %w", cutOffErr{}), kind: ErrorTransport},
		{name: "no content", err: errors.New("inference: no response content from endpoint"), kind: ErrorUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newService(t, &stubPredictor{err: tc.err}).Forward(context.Background(), ForwardInput{Message: "hi"})

			var ucErr *Error
			require.ErrorAs(t, err, &ucErr)
			require.Equal(t, tc.kind, ucErr.Kind)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestForward_StatusCodeSurvivesInMessage(t *testing.T) {
	_, err := newService(t, &stubPredictor{err: &statusErr{code: 503}}).Forward(context.Background(), ForwardInput{Message: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")
}

func TestForward_EmptyReplyIsUpstreamError(t *testing.T) {
	_, err := newService(t, &stubPredictor{reply: ""}).Forward(context.Background(), ForwardInput{Message: "hi"})

	var ucErr *Error
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, ErrorUpstream, ucErr.Kind)
	require.Contains(t, err.Error(), "no response content")
}

func TestError_Format(t *testing.T) {
	require.Equal(t, "PARSE_ERROR: empty_message", newError(ErrorParse, "empty_message", nil).Error())
	require.Equal(t, "UPSTREAM_ERROR: upstream_status: boom", newError(ErrorUpstream, "upstream_status", errors.New("boom")).Error())

	var nilErr *Error
	require.Empty(t, nilErr.Error())
	require.Nil(t, nilErr.Unwrap())
}
