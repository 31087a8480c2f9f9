package listing

import (
	"encoding/json"
	"fmt"
)

// Envelope is the JSON body the listing endpoint returns for Accept: application/json
type Envelope struct {
	HTML string // Listing fragment
	More bool   // Whether another page follows
}

// DecodeError reports a listing response that could not be decoded into an Envelope
type DecodeError struct {
	Page int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("listing page %d: %v", e.Page, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type rawEnvelope struct {
	HTML *string `json:"html"`
	More *bool   `json:"more"`
}

// DecodeEnvelope parses a listing response body. Both fields are required;
// a missing or mistyped field is a decode failure rather than a default value.
func DecodeEnvelope(page int, body []byte) (Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, &DecodeError{Page: page, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if raw.HTML == nil {
		return Envelope{}, &DecodeError{Page: page, Err: fmt.Errorf("missing field %q", "html")}
	}
	if raw.More == nil {
		return Envelope{}, &DecodeError{Page: page, Err: fmt.Errorf("missing field %q", "more")}
	}
	return Envelope{HTML: *raw.HTML, More: *raw.More}, nil
}
