package proto

// EndResponse marks the end of a response sequence. The responseID is
// mandatory: an EndResponse always answers something.
type EndResponse struct {
	Header
}

func (m *EndResponse) Type() string { return TagEndResponse }

func decodeEndResponse(obj map[string]any, outbound bool) (*EndResponse, error) {
	header, err := decodeHeader(obj, TagEndResponse, outbound, true)
	if err != nil {
		return nil, err
	}
	return &EndResponse{Header: header}, nil
}

func (m *EndResponse) Encode() (map[string]any, error) {
	if m.ResponseID.IsZero() {
		return nil, newError(ConstraintViolation, fieldResponseID, "endResponse requires a responseID")
	}
	obj := map[string]any{}
	m.Header.encodeInto(obj, TagEndResponse)
	return obj, nil
}

// ErrorResponse reports a failure while handling the message named by
// responseID. ErrorValue is the machine-readable error identifier;
// ErrorString is human-readable detail.
type ErrorResponse struct {
	Header
	ErrorValue  string
	ErrorString string
}

func (m *ErrorResponse) Type() string { return TagErrorResponse }

func decodeErrorResponse(obj map[string]any, outbound bool) (*ErrorResponse, error) {
	header, err := decodeHeader(obj, TagErrorResponse, outbound, true)
	if err != nil {
		return nil, err
	}
	rawValue, ok := obj["errorValue"]
	if !ok {
		return nil, newError(MissingField, "errorValue", "errorResponse requires errorValue")
	}
	errorValue, ok := asString(rawValue)
	if !ok {
		return nil, newError(TypeMismatch, "errorValue", "errorValue must be a string, got %v", rawValue)
	}
	rawString, ok := obj["errorString"]
	if !ok {
		return nil, newError(MissingField, "errorString", "errorResponse requires errorString")
	}
	errorString, ok := asString(rawString)
	if !ok {
		return nil, newError(TypeMismatch, "errorString", "errorString must be a string, got %v", rawString)
	}
	return &ErrorResponse{Header: header, ErrorValue: errorValue, ErrorString: errorString}, nil
}

func (m *ErrorResponse) Encode() (map[string]any, error) {
	if m.ResponseID.IsZero() {
		return nil, newError(ConstraintViolation, fieldResponseID, "errorResponse requires a responseID")
	}
	obj := map[string]any{}
	m.Header.encodeInto(obj, TagErrorResponse)
	obj["errorValue"] = m.ErrorValue
	obj["errorString"] = m.ErrorString
	return obj, nil
}
