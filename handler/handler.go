package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-forwarder/internal/domain"
	"chat-forwarder/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type Forwarder interface {
	Forward(ctx context.Context, in usecase.ForwardInput) (usecase.ForwardOutput, error)
}

type Handler struct {
	forwarder Forwarder
	log       *slog.Logger
}

// chatRequest is the JSON body posted by the chat client.
type chatRequest struct {
	Message             *string        `json:"message"`
	ConversationHistory domain.History `json:"conversationHistory"`
}

// envelope is the body returned on every path.
type envelope struct {
	Success             bool           `json:"success"`
	Response            string         `json:"response,omitempty"`
	ConversationHistory domain.History `json:"conversationHistory,omitempty"`
	Error               string         `json:"error,omitempty"`
}

func NewHandler(f Forwarder, log *slog.Logger) (*Handler, error) {
	if f == nil {
		return nil, errors.New("handler: forwarder must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{forwarder: f, log: log}, nil
}

// Handle is the Lambda entry point for API Gateway proxy events. It never
// returns a non-nil error: every failure is reported as a 500 envelope.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = newUUID()
	}
	log := h.log.With("correlation_id", correlationID)
	log.InfoContext(ctx, "received event", "event", redactEvent(event))

	if event.HTTPMethod == http.MethodOptions {
		return response(http.StatusOK, correlationID, ""), nil
	}

	if claims := authorizerClaims(event); claims != nil {
		log.InfoContext(ctx, "authenticated user", "user", userLabel(claims))
	}

	in, err := parseRequest(event.Body)
	if err != nil {
		return h.failure(ctx, log, correlationID, err), nil
	}

	out, err := h.forwarder.Forward(ctx, in)
	if err != nil {
		return h.failure(ctx, log, correlationID, err), nil
	}

	return writeEnvelope(http.StatusOK, correlationID, envelope{
		Success:             true,
		Response:            out.Response,
		ConversationHistory: out.History,
	}), nil
}

func parseRequest(body string) (usecase.ForwardInput, error) {
	var req chatRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return usecase.ForwardInput{}, usecase.ParseFailure("malformed_body", err)
	}
	if req.Message == nil {
		return usecase.ForwardInput{}, usecase.ParseFailure("missing_message", nil)
	}
	return usecase.ForwardInput{
		Message: *req.Message,
		History: req.ConversationHistory,
	}, nil
}

func (h *Handler) failure(ctx context.Context, log *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	kind := "UNKNOWN"
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		kind = string(ucErr.Kind)
	}
	log.ErrorContext(ctx, "forward failed", "kind", kind, "err", err)
	return writeEnvelope(http.StatusInternalServerError, correlationID, envelope{
		Success: false,
		Error:   err.Error(),
	})
}

func writeEnvelope(status int, correlationID string, env envelope) events.APIGatewayProxyResponse {
	body, err := json.Marshal(env)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(fmt.Sprintf(`{"success":false,"error":%q}`, "encode response: "+err.Error()))
	}
	return response(status, correlationID, string(body))
}

func response(status int, correlationID, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
			"Access-Control-Allow-Methods": "OPTIONS,POST",
			correlationHeader:              correlationID,
		},
		Body: body,
	}
}

// authorizerClaims returns the Cognito claims injected by the API Gateway
// authorizer, or nil when the request was not authorized.
func authorizerClaims(event events.APIGatewayProxyRequest) map[string]string {
	raw, ok := event.RequestContext.Authorizer["claims"].(map[string]interface{})
	if !ok {
		return nil
	}
	claims := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			claims[k] = s
			continue
		}
		claims[k] = fmt.Sprint(v)
	}
	return claims
}

func userLabel(claims map[string]string) string {
	if email := claims["email"]; email != "" {
		return email
	}
	return claims["cognito:username"]
}

// redactEvent returns a copy of event that is safe to log: credential headers
// are replaced, the original maps are left untouched.
func redactEvent(event events.APIGatewayProxyRequest) events.APIGatewayProxyRequest {
	if len(event.Headers) > 0 {
		headers := make(map[string]string, len(event.Headers))
		for k, v := range event.Headers {
			if isSensitiveHeader(k) {
				v = redacted
			}
			headers[k] = v
		}
		event.Headers = headers
	}
	if len(event.MultiValueHeaders) > 0 {
		headers := make(map[string][]string, len(event.MultiValueHeaders))
		for k, v := range event.MultiValueHeaders {
			if isSensitiveHeader(k) {
				v = []string{redacted}
			}
			headers[k] = v
		}
		event.MultiValueHeaders = headers
	}
	return event
}

const redacted = "[REDACTED]"

func isSensitiveHeader(name string) bool {
	return strings.EqualFold(name, "Authorization") ||
		strings.EqualFold(name, "X-Api-Key") ||
		strings.EqualFold(name, "X-Amz-Security-Token")
}

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var newUUID = func() string {
	return uuid.NewString()
}
