package sparklr

import (
	"encoding/json"
	"fmt"
)

// Wire payloads for the Sparklr API. These mirror the JSON the server emits
// and are converted into domain entities by the client's factories; callers
// never see them. Field names and optionality follow the wire format:
// "public" is an optional integer where 1 means visible, "via" and "origid"
// optional integers signal a repost, "commentcount" defaults to 0 and
// "modified" to -1 when absent.

// userPayload is the embedded user object the API attaches to posts,
// comments and the user endpoint.
type userPayload struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Network string `json:"network"`
}

// postPayload is the response shape of GET /post/{id}.
type postPayload struct {
	ID           int64       `json:"id"`
	From         userPayload `json:"from"`
	Network      string      `json:"network"`
	Type         int         `json:"type"`
	Meta         string      `json:"meta"`
	Time         int64       `json:"time"`
	Public       *int        `json:"public,omitempty"`
	Message      string      `json:"message"`
	OrigID       *int64      `json:"origid,omitempty"`
	Via          *int64      `json:"via,omitempty"`
	CommentCount *int        `json:"commentcount,omitempty"`
	Modified     *int64      `json:"modified,omitempty"`
}

// isPublic applies the wire rule: only an explicit 1 means visible.
func (p *postPayload) isPublic() bool {
	return p.Public != nil && *p.Public == 1
}

// commentCount returns the server-reported count, defaulting to 0.
func (p *postPayload) commentCount() int {
	if p.CommentCount == nil {
		return 0
	}
	return *p.CommentCount
}

// modified returns the modification timestamp, -1 meaning "never modified".
func (p *postPayload) modified() int64 {
	if p.Modified == nil {
		return neverModified
	}
	return *p.Modified
}

// commentPayload is one element of the GET /comments/{id} response array.
type commentPayload struct {
	ID      int64       `json:"id"`
	From    userPayload `json:"from"`
	Message string      `json:"message"`
	Time    int64       `json:"time"`
}

// notificationPayload is one element of the GET /notifications response
// array. Unlike posts and comments, "from" and "to" are bare user ids and
// must be resolved through the user factory.
type notificationPayload struct {
	ID     int64  `json:"id"`
	From   int64  `json:"from"`
	To     int64  `json:"to"`
	Type   int    `json:"type"`
	Time   int64  `json:"time"`
	Body   string `json:"body"`
	Action string `json:"action"`
}

// submitRequest is the body of POST /submitpost. The response is a bare
// JSON boolean.
type submitRequest struct {
	Message string `json:"message"`
	Network string `json:"network,omitempty"`
}

// parseAPIError parses an API error response into an APIError. It attempts
// to parse the body as JSON but falls back to the raw body as the message,
// so a plain-text 502 from a proxy still yields a usable error.
func parseAPIError(statusCode int, body []byte) error {
	if len(body) == 0 {
		return &APIError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("HTTP %d error", statusCode),
		}
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Message == "" {
		return &APIError{
			StatusCode: statusCode,
			Message:    string(body),
		}
	}

	apiErr.StatusCode = statusCode
	return &apiErr
}
