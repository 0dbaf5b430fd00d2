package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"Name":            "name",
		"AssignTo":        "assign_to",
		"LeadID":          "lead_id",
		"TaskID":          "task_id",
		"ParentCommentID": "parent_comment_id",
		"CurrentPassword": "current_password",
	}
	for in, want := range tests {
		assert.Equal(t, want, toSnake(in), in)
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "validation",
			err:      &services.ValidationError{Fields: map[string]string{"name": "Task name is required"}},
			wantCode: http.StatusBadRequest,
			wantBody: `"VALIDATION_FAILED"`,
		},
		{
			name: "dependency",
			err: &services.DependencyError{Resource: "user", ID: 3, Blocking: []services.BlockingTask{
				{TaskID: 1, TaskName: "Pour foundation", Summary: `"Pour foundation" assigned by admin`},
			}},
			wantCode: http.StatusConflict,
			wantBody: `"DEPENDENCY_BLOCKED"`,
		},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrTaskNotFound), http.StatusNotFound, "Task not found"},
		{"lead not found", services.ErrLeadNotFound, http.StatusNotFound, `"NOT_FOUND"`},
		{"admin required", services.ErrAdminRequired, http.StatusForbidden, `"FORBIDDEN"`},
		{"self delete", services.ErrCannotDeleteSelf, http.StatusBadRequest, `"INVALID_OPERATION"`},
		{"duplicate user", services.ErrUserExists, http.StatusConflict, `"ALREADY_EXISTS"`},
		{"bad login", services.ErrInvalidCredentials, http.StatusUnauthorized, `"INVALID_CREDENTIALS"`},
		{"ai off", services.ErrAIServiceNotConfigured, http.StatusServiceUnavailable, `"SERVICE_UNAVAILABLE"`},
		{"unexpected", errors.New("connection reset by peer"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "connection reset")
		})
	}
}

func TestBindJSON_TranslatesValidatorErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type request struct {
		TaskID   uint64 `json:"task_id" binding:"required"`
		Password string `json:"password" binding:"required,min=8"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"password":"short"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req request
	assert.False(t, bindJSON(c, &req))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Code)
	assert.Equal(t, "Task id is required", body.Details["task_id"])
	assert.Equal(t, "Password must be at least 8 characters", body.Details["password"])
}

func TestBindJSON_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"task_id":`))
	c.Request.Header.Set("Content-Type", "application/json")

	var req struct {
		TaskID uint64 `json:"task_id"`
	}
	assert.False(t, bindJSON(c, &req))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestParseDate(t *testing.T) {
	d, ok := parseDate("2025-06-12")
	require.True(t, ok)
	assert.Equal(t, 12, d.Day())

	_, ok = parseDate("2025-06-12T09:30:00Z")
	assert.True(t, ok)

	_, ok = parseDate("12/06/2025")
	assert.False(t, ok)
}
