package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lens-catalog/internal/validation"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var standardErrorCodes = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusServiceUnavailable,
}

// Every error response carries code, message and an RFC3339 timestamp
func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all error responses have consistent structure", prop.ForAll(
		func(message string, idx int) bool {
			statusCode := standardErrorCodes[idx]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode {
				return false
			}
			if w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			if response.Error.Code != http.StatusText(statusCode) {
				return false
			}
			if response.Error.Message != message {
				return false
			}
			if response.Error.Details != nil {
				return false
			}
			if _, err := time.Parse(time.RFC3339, response.Error.Timestamp); err != nil {
				return false
			}

			return true
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.IntRange(0, len(standardErrorCodes)-1),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Validation failures list every field error under details
func TestProperty_ValidationErrorsAreListed(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation errors keep field and message", prop.ForAll(
		func(fieldName string, errorMessage string) bool {
			errs := validation.Errors{{Field: fieldName, Message: errorMessage}}

			w := httptest.NewRecorder()
			RespondWithValidationErrors(w, errs)

			if w.Code != http.StatusBadRequest {
				return false
			}

			var response struct {
				Error struct {
					Message string `json:"message"`
					Details struct {
						ValidationErrors []validation.FieldError `json:"validation_errors"`
					} `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}

			got := response.Error.Details.ValidationErrors
			return response.Error.Message == "validation failed" &&
				len(got) == 1 && got[0].Field == fieldName && got[0].Message == errorMessage
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "Product created successfully"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Product created successfully"}`, w.Body.String())
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "internal server error", response.Error.Message)
}
