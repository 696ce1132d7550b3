package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/cuemby/lookout/pkg/types"
)

// Outcome is the tagged result of a handler: an HTTP status, an error code
// and the envelope data
type Outcome struct {
	Status int
	Code   types.ErrorCode
	Data   any
}

// OK returns a 200 Success outcome
func OK(data any) Outcome {
	return Outcome{Status: http.StatusOK, Code: types.Success, Data: data}
}

// Example returns a 200 ExampleData outcome for actions the gateway
// acknowledges without performing
func Example(data any) Outcome {
	return Outcome{Status: http.StatusOK, Code: types.ExampleData, Data: data}
}

// Fail returns an error outcome
func Fail(status int, code types.ErrorCode, data any) Outcome {
	return Outcome{Status: status, Code: code, Data: data}
}

// NotFound returns a 404 ServerNotFound outcome for id
func NotFound(id string) Outcome {
	return Fail(http.StatusNotFound, types.ServerNotFound, map[string]string{"id": id})
}

// Offline returns a 409 ServerOffline outcome for id
func Offline(id string) Outcome {
	return Fail(http.StatusConflict, types.ServerOffline, map[string]string{"id": id})
}

// encodeEnvelope renders the response body for code and data
func encodeEnvelope(code types.ErrorCode, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(types.Envelope{ErrorCode: code, Data: data}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
