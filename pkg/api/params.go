package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/cuemby/lookout/pkg/types"
)

// RequireParams checks that the query is non-empty and that every name is
// present and non-blank. On failure it returns the outcome to send and false.
func RequireParams(query url.Values, names ...string) (Outcome, bool) {
	if len(query) == 0 {
		return Fail(http.StatusBadRequest, types.NoParameters, nil), false
	}

	for _, name := range names {
		if strings.TrimSpace(query.Get(name)) == "" {
			return Fail(http.StatusBadRequest, types.MissingParameter, paramData(name)), false
		}
	}

	return Outcome{}, true
}

// InvalidParam returns a 400 InvalidParameter outcome for name
func InvalidParam(name string) Outcome {
	return Fail(http.StatusBadRequest, types.InvalidParameter, paramData(name))
}

func paramData(name string) map[string]string {
	return map[string]string{"parameter": name}
}
