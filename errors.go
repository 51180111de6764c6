package twitter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anatolykoptev/go-twitter-paging/paginate"
)

// errorClass categorizes Twitter API error responses for targeted handling.
type errorClass int

const (
	errNone          errorClass = iota
	errRateLimited              // 88, HTTP 429
	errSuspended                // 64: account suspended
	errLocked                   // 326: account locked (captcha needed)
	errCSRF                     // 353: csrf token mismatch
	errAuthExpired              // 32, 89: could not authenticate
	errBlocked                  // 161: account blocked from the action
	errNotAuthorized            // 179, 219: resource is protected
	errInternal                 // 131
	errOverCapacity             // 130
	errNotFound                 // 34, 50, 63, HTTP 404
	errBadRequest               // 44, 214, HTTP 400
	errUnauthorized             // HTTP 401 without a known code
	errForbidden                // HTTP 403 without a known code
	errServer                   // HTTP 5xx
	errUnexpected               // any other non-200 status
)

// Terminal reasons beyond the ones paginate defines.
const reasonForbidden = "forbidden"

// apiErrorBody is the v1.1 error envelope.
type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// classifyError inspects a response body for known Twitter error codes.
func classifyError(body []byte) errorClass {
	var errResp apiErrorBody
	if json.Unmarshal(body, &errResp) != nil || len(errResp.Errors) == 0 {
		return errNone
	}

	for _, e := range errResp.Errors {
		switch e.Code {
		case 88:
			return errRateLimited
		case 64:
			return errSuspended
		case 326:
			return errLocked
		case 353:
			return errCSRF
		case 32, 89:
			return errAuthExpired
		case 161:
			return errBlocked
		case 179, 219:
			return errNotAuthorized
		case 131:
			return errInternal
		case 130:
			return errOverCapacity
		case 34, 50, 63:
			return errNotFound
		case 44, 214:
			return errBadRequest
		}
	}
	return errNone
}

// classifyResponse combines the HTTP status with the body's error codes.
// Body codes win over the status; a 200 without codes is errNone.
func classifyResponse(status int, body []byte) errorClass {
	if class := classifyError(body); class != errNone {
		return class
	}
	switch {
	case status == 200:
		return errNone
	case status == 429:
		return errRateLimited
	case status == 400:
		return errBadRequest
	case status == 401:
		return errUnauthorized
	case status == 403:
		return errForbidden
	case status == 404:
		return errNotFound
	case status >= 500:
		return errServer
	}
	return errUnexpected
}

// accountFault reports whether the class describes the session rather than
// the request, so another account may succeed.
func (c errorClass) accountFault() bool {
	switch c {
	case errSuspended, errLocked, errCSRF, errAuthExpired, errBlocked:
		return true
	}
	return false
}

// APIError is a non-success response from the REST API.
type APIError struct {
	Endpoint string
	Status   int
	Codes    []int
	Message  string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s HTTP %d", e.Endpoint, e.Status)
	if len(e.Codes) > 0 {
		fmt.Fprintf(&b, " code %v", e.Codes)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func newAPIError(endpoint string, status int, body []byte) *APIError {
	e := &APIError{Endpoint: endpoint, Status: status}
	var errResp apiErrorBody
	if json.Unmarshal(body, &errResp) == nil && len(errResp.Errors) > 0 {
		for _, ae := range errResp.Errors {
			e.Codes = append(e.Codes, ae.Code)
		}
		e.Message = errResp.Errors[0].Message
	} else {
		e.Message = truncateBytes(body, 200)
	}
	return e
}

// walkError maps a failed response onto the paging error kinds.
func walkError(class errorClass, apiErr *APIError, hdrs map[string]string) *paginate.WalkError {
	switch class {
	case errRateLimited:
		return paginate.RateLimited(parseRateLimitReset(hdrs["x-rate-limit-reset"]), apiErr)
	case errNotFound:
		return paginate.Terminal(paginate.ReasonNotFound, apiErr)
	case errBadRequest:
		return paginate.Terminal(paginate.ReasonBadArgument, apiErr)
	case errUnauthorized, errNotAuthorized:
		return paginate.Terminal(paginate.ReasonUnauthorized, apiErr)
	case errForbidden, errUnexpected:
		return paginate.Terminal(reasonForbidden, apiErr)
	}
	return paginate.Transient(apiErr)
}

// parseRateLimitReset parses the X-Rate-Limit-Reset unix timestamp header.
// Falls back to 15 minutes from now if missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(ts, 0)
	}
	return time.Now().Add(15 * time.Minute)
}

// parseRateLimit reads the rate-limit window reported with a response.
// Missing counters are -1 and a missing reset is the zero time.
func parseRateLimit(hdrs map[string]string) paginate.RateLimit {
	rl := paginate.RateLimit{Limit: -1, Remaining: -1}
	if v, err := strconv.Atoi(hdrs["x-rate-limit-limit"]); err == nil {
		rl.Limit = v
	}
	if v, err := strconv.Atoi(hdrs["x-rate-limit-remaining"]); err == nil {
		rl.Remaining = v
	}
	if ts, err := strconv.ParseInt(hdrs["x-rate-limit-reset"], 10, 64); err == nil {
		rl.Reset = time.Unix(ts, 0)
	}
	return rl
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
