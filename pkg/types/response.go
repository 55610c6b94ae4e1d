package types

// ErrorEnvelope is the JSON body of every failed API response. Successful
// responses carry their payload unwrapped.
type ErrorEnvelope struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

