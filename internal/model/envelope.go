package model

// Envelope messages. Callers and tests match on these exact strings.
const (
	MessageOK          = "OK"
	MessageNoFinesURL  = "Can not get fines url"
	MessageNoSessionID = "Can not get session id"
	MessageNoFinesData = "Can not get fines data"
)

// ResponseEnvelope is the result of a lookup as seen by callers.
// Data is never nil so that it always serializes as a JSON array.
type ResponseEnvelope struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Data    []ViolationRecord `json:"data"`
}

// NewErrorEnvelope returns a failed envelope with no data.
func NewErrorEnvelope(message string) ResponseEnvelope {
	return ResponseEnvelope{
		Error:   true,
		Message: message,
		Data:    []ViolationRecord{},
	}
}

// NewOKEnvelope returns a successful envelope carrying records.
func NewOKEnvelope(records []ViolationRecord) ResponseEnvelope {
	if records == nil {
		records = []ViolationRecord{}
	}
	return ResponseEnvelope{
		Error:   false,
		Message: MessageOK,
		Data:    records,
	}
}
