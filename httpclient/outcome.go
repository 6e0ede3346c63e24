package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/gaborage/go-astrox/internal/tracking"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetryable
	outcomeFatal
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return tracking.OutcomeSuccess
	case outcomeRetryable:
		return tracking.OutcomeRetryable
	default:
		return tracking.OutcomeFatal
	}
}

const (
	fieldIsSuccess = "IsSuccess"
	fieldMessage   = "Message"

	defaultAPIErrorMessage = "Unknown error"
	msgInvalidJSON         = "failed to parse JSON response"
)

// classifyResponse turns a received response into an outcome. On success data holds
// the decoded body when it is a JSON object; numbers are json.Number so that large
// integers survive.
func classifyResponse(endpoint string, status int, body []byte) (data map[string]any, o outcome, err error) {
	if status >= 500 {
		return nil, outcomeRetryable, NewHTTPError(endpoint, httpErrorMessage(status, body), status, body)
	}
	if status >= 400 {
		return nil, outcomeFatal, NewHTTPError(endpoint, httpErrorMessage(status, body), status, body)
	}

	if !gjson.ValidBytes(body) {
		return nil, outcomeFatal, NewAPIError(endpoint, msgInvalidJSON, status, body)
	}

	parsed := gjson.ParseBytes(body)
	if parsed.IsObject() {
		if flag := parsed.Get(fieldIsSuccess); flag.Exists() && !truthy(flag) {
			msg := defaultAPIErrorMessage
			if m := parsed.Get(fieldMessage); m.Exists() {
				msg = m.String()
			}
			return nil, outcomeFatal, NewAPIError(endpoint, msg, status, body)
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, outcomeFatal, NewAPIError(endpoint, msgInvalidJSON, status, body)
		}
	}
	return data, outcomeSuccess, nil
}

// truthy mirrors the loose truthiness the server's clients have always applied to
// IsSuccess: false, null, zero, "" and empty containers count as failure.
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.False, gjson.Null:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Float() != 0
	case gjson.String:
		return r.Str != ""
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	default:
		return false
	}
}

func httpErrorMessage(status int, body []byte) string {
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	if text := nethttp.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}

// classifyTransportError maps an error from http.Client.Do (or from reading the body)
// to an outcome. ctx is the caller's context, attemptCtx the per-attempt one.
func classifyTransportError(ctx, attemptCtx context.Context, endpoint string, timeout time.Duration, err error) (outcome, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcomeFatal, NewConnectionError(endpoint, "request cancelled", ctxErr)
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeRetryable, NewTimeoutError(endpoint, timeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return outcomeRetryable, NewTimeoutError(endpoint, timeout, err)
	}

	return outcomeRetryable, NewConnectionError(endpoint, "request failed", err)
}

// backoffDelay returns base*2^attempt, saturating instead of overflowing.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt >= 62 {
		return time.Duration(math.MaxInt64)
	}
	factor := int64(1) << uint(attempt)
	if int64(base) > math.MaxInt64/factor {
		return time.Duration(math.MaxInt64)
	}
	return base * time.Duration(factor)
}
