package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/logger"
	"github.com/sankalp-nadiger/LRMS-ByteDocker-sub001/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestContext creates a test Gin context with logger and request ID in context.
func setupTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/api/v1/records/r1/nondhs/e1/status", nil)
	c.Set(middleware.LoggerKey, logger.New("test"))
	c.Set(middleware.RequestIDKey, "test-request-id")
	return c, w
}

func parseErrorResponse(t *testing.T, body *bytes.Buffer) ErrorResponse {
	var response ErrorResponse
	err := json.Unmarshal(body.Bytes(), &response)
	require.NoError(t, err, "Failed to parse error response JSON")
	return response
}

func TestNotFound(t *testing.T) {
	c, w := setupTestContext()

	NotFound(c, "Nondh not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Equal(t, "Nondh not found", response.Error.Message)
	assert.Equal(t, "test-request-id", response.Error.RequestID)
	assert.Nil(t, response.Error.Details)
	assert.True(t, c.IsAborted())
}

func TestBadRequest(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid record id", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, ErrBadRequest, response.Error.Code)
		assert.Nil(t, response.Error.Details)
	})

	t.Run("with details", func(t *testing.T) {
		c, w := setupTestContext()

		BadRequest(c, "Invalid record id", map[string]interface{}{"recordId": "abc"})

		response := parseErrorResponse(t, w.Body)
		assert.Equal(t, "abc", response.Error.Details["recordId"])
	})
}

func TestFieldErrors(t *testing.T) {
	c, w := setupTestContext()

	FieldErrors(c, "Nondh detail is incomplete", map[string]string{
		"invalidReason": "is required when status is invalid",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Nondh detail is incomplete", response.Error.Message)
	assert.Equal(t, "is required when status is invalid", response.Error.Details["invalidReason"])
}

func TestAreaExceeded(t *testing.T) {
	c, w := setupTestContext()

	AreaExceeded(c, "New owner area exceeds year slab capacity", map[string]interface{}{
		"limit":   "year_slab_capacity",
		"maximum": "800",
		"unit":    "sq_m",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrAreaExceeded, response.Error.Code)
	assert.Equal(t, "800", response.Error.Details["maximum"])
	assert.Equal(t, "year_slab_capacity", response.Error.Details["limit"])
}

func TestChainInconsistent(t *testing.T) {
	c, w := setupTestContext()

	ChainInconsistent(c, "Affected entries form a cycle", errors.New("cyclic affected-entry reference"))

	assert.Equal(t, http.StatusConflict, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrChainInconsistent, response.Error.Code)
	assert.Equal(t, "test-request-id", response.Error.RequestID)
}

func TestInternalServerError(t *testing.T) {
	c, w := setupTestContext()

	InternalServerError(c, "Failed to load chain", errors.New("database connection failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrInternalServer, response.Error.Code)
	assert.Equal(t, "Failed to load chain", response.Error.Message)
	assert.NotContains(t, w.Body.String(), "database connection failed")
}

func TestValidationError(t *testing.T) {
	c, w := setupTestContext()

	type statusRequest struct {
		Status string `validate:"required,oneof=valid invalid nullified"`
		Reason string `validate:"max=5"`
	}
	err := validator.New().Struct(statusRequest{Status: "archived", Reason: "far too long"})
	require.Error(t, err)
	validationErrors, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	ValidationError(c, validationErrors)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrValidation, response.Error.Code)
	assert.Equal(t, "Validation failed for one or more fields", response.Error.Message)
	assert.Equal(t, "Must be one of: valid invalid nullified", response.Error.Details["Status"])
	assert.Equal(t, "Value is too long or large (maximum: 5)", response.Error.Details["Reason"])
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		tag      string
		param    string
		expected string
	}{
		{tag: "required", expected: "This field is required"},
		{tag: "min", param: "1", expected: "Value is too short or small (minimum: 1)"},
		{tag: "max", param: "100", expected: "Value is too long or large (maximum: 100)"},
		{tag: "gte", param: "0", expected: "Must be greater than or equal to 0"},
		{tag: "lte", param: "40", expected: "Must be less than or equal to 40"},
		{tag: "oneof", param: "sq_m acre_guntha", expected: "Must be one of: sq_m acre_guntha"},
		{tag: "uuid", expected: "Must be a valid UUID"},
		{tag: "datetime", param: "2006-01-02", expected: "Must be a date in the format 2006-01-02"},
		{tag: "required_if", param: "Status invalid", expected: "This field is required when Status invalid"},
		{tag: "dive", expected: "One or more items are invalid"},
		{tag: "unknown_tag", expected: "Validation failed for tag: unknown_tag"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			result := formatValidationError(&mockFieldError{tag: tt.tag, param: tt.param})
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestErrorResponseWithoutContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)

	NotFound(c, "Record not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	response := parseErrorResponse(t, w.Body)
	assert.Equal(t, ErrNotFound, response.Error.Code)
	assert.Empty(t, response.Error.RequestID)
}

// mockFieldError is a mock implementation of validator.FieldError for testing.
type mockFieldError struct {
	tag   string
	param string
}

func (m *mockFieldError) Tag() string                    { return m.tag }
func (m *mockFieldError) ActualTag() string              { return m.tag }
func (m *mockFieldError) Namespace() string              { return "" }
func (m *mockFieldError) StructNamespace() string        { return "" }
func (m *mockFieldError) Field() string                  { return "TestField" }
func (m *mockFieldError) StructField() string            { return "TestField" }
func (m *mockFieldError) Value() interface{}             { return nil }
func (m *mockFieldError) Param() string                  { return m.param }
func (m *mockFieldError) Kind() reflect.Kind             { return reflect.String }
func (m *mockFieldError) Type() reflect.Type             { return nil }
func (m *mockFieldError) Translate(ut.Translator) string { return "" }
func (m *mockFieldError) Error() string                  { return "" }
