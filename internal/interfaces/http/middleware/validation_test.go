package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTagValidator(t *testing.T) {
	require.NoError(t, RegisterValidators())

	engine := gin.New()
	engine.POST("/dates", func(c *gin.Context) {
		var payload struct {
			Date string `json:"date" binding:"omitempty,ddmmyyyy"`
		}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(body string) int {
		req := httptest.NewRequest(http.MethodPost, "/dates", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post(`{"date": "15/06/2025"}`))
	assert.Equal(t, http.StatusOK, post(`{}`), "empty dates pass, required is a separate tag")
	assert.Equal(t, http.StatusBadRequest, post(`{"date": "2025-06-15"}`))
	assert.Equal(t, http.StatusBadRequest, post(`{"date": "31/02/2025"}`))
}
