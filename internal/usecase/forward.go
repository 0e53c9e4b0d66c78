package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"chat-forwarder/internal/domain"
)

// Predictor sends a conversation to the inference endpoint and returns the
// assistant reply.
type Predictor interface {
	Predict(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// transportFailure marks errors raised while talking to the endpoint at the
// connection level, including a body cut off mid-read.
type transportFailure interface {
	Transport() bool
}

type ForwardService struct {
	predictor Predictor
	log       *slog.Logger
}

type ForwardInput struct {
	Message string
	History domain.History
}

type ForwardOutput struct {
	Response string
	History  domain.History
}

func NewForwardService(p Predictor, log *slog.Logger) (*ForwardService, error) {
	if p == nil {
		return nil, errors.New("usecase: predictor must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ForwardService{predictor: p, log: log}, nil
}

// Forward appends the user message to the history, asks the predictor for a
// reply and returns the history with both turns appended. in.History is not
// modified.
func (s *ForwardService) Forward(ctx context.Context, in ForwardInput) (ForwardOutput, error) {
	if in.Message == "" {
		return ForwardOutput{}, newError(ErrorParse, "empty_message", nil)
	}
	for i, m := range in.History {
		if !domain.ValidRole(m.Role) {
			return ForwardOutput{}, newError(ErrorParse, "invalid_history_role", fmt.Errorf("entry %d has role %q", i, m.Role))
		}
	}

	messages := in.History.Append(domain.ChatMessage{Role: domain.RoleUser, Content: in.Message})
	s.log.InfoContext(ctx, "forwarding conversation", "messages", messages)

	reply, err := s.predictor.Predict(ctx, messages)
	if err != nil {
		return ForwardOutput{}, classifyPredictError(err)
	}
	s.log.InfoContext(ctx, "inference response received", "response", reply)

	if reply == "" {
		return ForwardOutput{}, newError(ErrorUpstream, "no_response_content", errors.New("no response content from endpoint"))
	}

	return ForwardOutput{
		Response: reply,
		History:  messages.Append(domain.ChatMessage{Role: domain.RoleAssistant, Content: reply}),
	}, nil
}

func classifyPredictError(err error) *Error {
	if _, ok := upstreamStatusCode(err); ok {
		return newError(ErrorUpstream, "upstream_status", err)
	}
	var tErr transportFailure
	if errors.As(err, &tErr) && tErr.Transport() {
		return newError(ErrorTransport, "endpoint_unreachable", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(ErrorTransport, "endpoint_unreachable", err)
	}
	return newError(ErrorUpstream, "upstream_response", err)
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
