package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTempPassword(t *testing.T) {
	pw, err := GenerateTempPassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
	for _, r := range pw {
		assert.True(t, strings.ContainsRune(tempPasswordAlphabet, r))
	}

	other, err := GenerateTempPassword(12)
	require.NoError(t, err)
	assert.NotEqual(t, pw, other)
}

func TestGetPaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, constants.DefaultPageSize, 0},
		{"page=3&limit=10", 3, 10, 20},
		{"page=0&limit=100000", 1, constants.DefaultPageSize, 0},
		{"page=abc", 1, constants.DefaultPageSize, 0},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/tasks?"+tt.query, nil)

		params := GetPaginationParams(c)
		assert.Equal(t, tt.wantPage, params.Page, tt.query)
		assert.Equal(t, tt.wantLimit, params.Limit, tt.query)
		assert.Equal(t, tt.wantOffset, params.Offset, tt.query)
	}
}

func TestNewPaginationParams(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 3, Limit: 20, Offset: 40}, NewPaginationParams(3, 20))
	assert.Equal(t, PaginationParams{}, NewPaginationParams(0, 20))
	assert.Equal(t, PaginationParams{}, NewPaginationParams(2, 0))
}
