package dispatch

// Result classifies the terminal state of one dispatch attempt.
type Result string

const (
	// Sent means the gateway accepted the send request.
	Sent Result = "sent"
	// UserNotFound means no record exists for the target user. Benign.
	UserNotFound Result = "user-not-found"
	// TokenMissing means the user exists but holds no delivery token,
	// usually because they never granted notification permission. Benign.
	TokenMissing Result = "token-missing"
	// GatewayRejected means the upstream gateway returned a non-success
	// response; status and detail are surfaced verbatim.
	GatewayRejected Result = "gateway-error"
	// NotConfigured means the server-held gateway credential is absent.
	// A deployment defect, surfaced loudly.
	NotConfigured Result = "configuration-error"
)

// Outcome is the result of a single dispatch attempt. Exactly one Outcome is
// produced per request; the service performs no internal retries.
type Outcome struct {
	Result Result

	// GatewayStatus and GatewayDetail are populated only when Result is
	// GatewayRejected.
	GatewayStatus int
	GatewayDetail string
}
