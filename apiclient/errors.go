package apiclient

import (
	"encoding/json"
	"strings"

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/internal/utils"
)

// Keys in an error body that describe the error rather than a form field.
var nonFieldKeys = map[string]bool{
	"detail":   true,
	"code":     true,
	"messages": true,
	"error":    true,
	"message":  true,
}

// parseErrorBody turns an error response into a ResponseError. The backend answers
// either {"detail": "..."} or {"field": ["message", ...]}; anything else keeps the raw body.
func parseErrorBody(status int, raw []byte) *errors.ResponseError {
	respErr := &errors.ResponseError{Status: status, Body: raw}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		if text := strings.TrimSpace(string(raw)); text != "" && !strings.HasPrefix(text, "<") && len(text) < 200 {
			respErr.Detail = text
		}
		return respErr
	}

	for _, key := range []string{"detail", "message", "error"} {
		if msgs := utils.ToStringSlice(body[key]); len(msgs) > 0 {
			respErr.Detail = strings.Join(msgs, " ")
			break
		}
	}

	for key, value := range body {
		if nonFieldKeys[key] {
			continue
		}
		if msgs := utils.ToStringSlice(value); len(msgs) > 0 {
			if respErr.Fields == nil {
				respErr.Fields = make(map[string][]string)
			}
			respErr.Fields[key] = msgs
		}
	}

	if respErr.Detail == "" {
		if msgs := respErr.Fields["non_field_errors"]; len(msgs) > 0 {
			respErr.Detail = strings.Join(msgs, " ")
		}
	}
	return respErr
}
