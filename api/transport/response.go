package transport

import "encoding/json"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON answer of the planner API. Streams and file
// downloads are the only responses sent without it.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// ErrorMeta accompanies validation failures with one message per JSON field.
type ErrorMeta struct {
	Fields map[string]string `json:"fields,omitempty"`
}

// ListMeta rides along task listings while writes wait in the offline buffer.
type ListMeta struct {
	PendingWrites int `json:"pendingWrites"`
}

func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: StatusSuccess,
		Data:   data,
		Meta:   meta,
	}
}

func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: StatusError,
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// NewFieldError is NewError for payloads that failed field validation.
func NewFieldError(code, message string, fields map[string]string) Envelope {
	return NewError(code, message, ErrorMeta{Fields: fields})
}

// String renders the envelope for log fields.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
