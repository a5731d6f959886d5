// Package notification contains the domain models shared by the dispatch
// service, the token registrar and the background deliverer.
package notification

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Category values carried in the "type" field of the dispatch data payload.
const (
	CategoryRewardCredited     = "reward-credited"
	CategorySubmissionApproved = "submission-approved"
	CategorySubmissionRejected = "submission-rejected"
	CategoryGeneric            = "generic"
)

// Fixed presentation constants. The click target doubles as the canonical
// destination the background deliverer routes activation clicks to; it is a
// constant, not configuration.
const (
	DefaultIcon        = "/icons/icon-192x192.png"
	DefaultClickTarget = "/dashboard"
)

// ErrMissingField marks a malformed request. It is a client error: the caller
// must fix its input, the dispatch path is never entered.
var ErrMissingField = errors.New("missing required field")

// DeviceToken is the opaque delivery credential bound to one (user, device)
// pair. At most one active token is stored per user; registration overwrites,
// never merges.
type DeviceToken struct {
	Value       string    `json:"value"`
	OwnerUserID string    `json:"ownerUserId"`
	IssuedAt    time.Time `json:"issuedAt"`
}

// Content is the rendered part of a notification.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

// Request is a single dispatch request: deliver one notification to the
// current device of one user.
type Request struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Type   string            `json:"type,omitempty"`
	Amount *float64          `json:"amount,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// Validate checks the mandatory fields. UserID, Title and Body must be
// present; everything else is optional.
func (r Request) Validate() error {
	switch {
	case r.UserID == "":
		return fmt.Errorf("%w: userId", ErrMissingField)
	case r.Title == "":
		return fmt.Errorf("%w: title", ErrMissingField)
	case r.Body == "":
		return fmt.Errorf("%w: body", ErrMissingField)
	}
	return nil
}

// Content returns the renderable part of the request with the fixed icon
// applied.
func (r Request) Content() Content {
	return Content{Title: r.Title, Body: r.Body, Icon: DefaultIcon}
}

// Payload builds the data mapping delivered alongside the notification:
// the category, the stringified amount (empty string when absent), merged
// with the caller-supplied Data. Caller fields win on conflict; the server
// never injects overlapping keys, so in practice there is none.
func (r Request) Payload() map[string]string {
	payload := map[string]string{
		"type":   r.Category(),
		"amount": r.AmountString(),
	}
	for k, v := range r.Data {
		payload[k] = v
	}
	return payload
}

// Category returns the request type, falling back to the generic category.
func (r Request) Category() string {
	if r.Type == "" {
		return CategoryGeneric
	}
	return r.Type
}

// AmountString renders the optional amount the way the delivered payload
// carries it: a plain decimal string, or "" when no amount was supplied.
func (r Request) AmountString() string {
	if r.Amount == nil {
		return ""
	}
	return strconv.FormatFloat(*r.Amount, 'f', -1, 64)
}
