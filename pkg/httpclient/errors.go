package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/probin-johori/sustainable/pkg/errors"
)

// UpstreamError describes a non-2xx answer from an external data API.
type UpstreamError struct {
	Source  string
	Status  int
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s returned status %d", e.Source, e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap maps the status onto the shared sentinels so callers can use
// errors.Is without knowing the upstream.
func (e *UpstreamError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return apperrors.ErrNotFound
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return apperrors.ErrUnauthorized
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidInput
	case e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError:
		return apperrors.ErrServiceUnavail
	default:
		return nil
	}
}

// errorBody covers the two error shapes seen from the data APIs:
//
//	{"error": {"code": 403, "message": "...", "status": "PERMISSION_DENIED"}}
//	{"error": {"type": "AUTHENTICATION_REQUIRED", "message": "..."}}
//	{"error": "NOT_FOUND"}
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Status  string `json:"status"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes resp.Body and returns an
// *UpstreamError for source. Call it only for non-2xx responses.
func ParseResponseError(resp *http.Response, source string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", source, resp.StatusCode, err)
	}

	upErr := &UpstreamError{Source: source, Status: resp.StatusCode}
	upErr.Code, upErr.Message = parseErrorBody(body)
	return upErr
}

func parseErrorBody(body []byte) (code, message string) {
	var eb errorBody
	if json.Unmarshal(body, &eb) != nil || len(eb.Error) == 0 {
		return "", upstreamMessage(body)
	}

	var s string
	if json.Unmarshal(eb.Error, &s) == nil {
		return s, ""
	}

	var d errorDetail
	if json.Unmarshal(eb.Error, &d) == nil {
		code = d.Status
		if code == "" {
			code = d.Type
		}
		return code, d.Message
	}
	return "", upstreamMessage(body)
}

func upstreamMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
