package mapping

import "strings"

// Unwrap locates the record array in a decoded response. With an empty
// resultKey the root itself must be an array; otherwise the root must be an
// object holding an array under resultKey.
//
// An object root that carries an error message instead of records is
// reported as a *ServerError.
func Unwrap(root any, resultKey string) ([]any, error) {
	if resultKey == "" {
		if records, ok := root.([]any); ok {
			return records, nil
		}
		if obj, ok := root.(map[string]any); ok {
			if err := serverError(obj, 0); err != nil {
				return nil, err
			}
		}
		return nil, &EnvelopeError{Got: jsonType(root)}
	}

	obj, ok := root.(map[string]any)
	if !ok {
		return nil, &EnvelopeError{Key: resultKey, Got: jsonType(root)}
	}
	value, found := obj[resultKey]
	if records, ok := value.([]any); found && ok {
		return records, nil
	}
	if err := serverError(obj, 0); err != nil {
		return nil, err
	}
	if !found {
		return nil, &EnvelopeError{Key: resultKey, Got: "object without " + quote(resultKey)}
	}
	return nil, &EnvelopeError{Key: resultKey, Got: jsonType(value) + " under " + quote(resultKey)}
}

// ParseServerError looks for an error payload in body, typically the body of
// a non-2xx response. It returns nil when body holds no recognisable message.
func ParseServerError(body []byte, status int) *ServerError {
	root, err := Decode(body)
	if err != nil {
		return nil
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil
	}
	return serverError(obj, status)
}

var messageKeys = []string{"message", "error", "reason"}

func serverError(obj map[string]any, status int) *ServerError {
	for _, key := range messageKeys {
		if msg, ok := obj[key].(string); ok && strings.TrimSpace(msg) != "" {
			return &ServerError{Status: status, Message: msg}
		}
	}
	if success, ok := obj["success"].(bool); ok && !success {
		return &ServerError{Status: status, Message: "request was not successful"}
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
