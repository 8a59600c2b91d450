package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeErrorCode(t *testing.T) {
	cases := []struct {
		domain string
		want   string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"USER_NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"UNPARSEABLE_DATE", ErrCodeUnparseableDate},
		{"STORE_UNAVAILABLE", ErrCodeStoreUnavailable},
		{"INVALID_CREDENTIALS", ErrCodeInvalidCredentials},
		{"ACCOUNT_LOCKED", ErrCodeAccountLocked},
		{"ACCOUNT_DEACTIVATED", ErrCodeAccountInactive},
		{"TOKEN_EXPIRED", ErrCodeTokenExpired},
		{"TOKEN_MAX_REFRESH", ErrCodeTokenInvalid},
		{"INTERNAL_ERROR", ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.domain, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeErrorCode(tc.domain))
		})
	}

	t.Run("unmapped field validation codes become ERR_VALIDATION", func(t *testing.T) {
		assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("INVALID_NAME"))
		assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("INVALID_CODE"))
		assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("INVALID_PHONE"))
	})

	t.Run("unknown codes pass through unchanged", func(t *testing.T) {
		assert.Equal(t, "SOMETHING_ELSE", NormalizeErrorCode("SOMETHING_ELSE"))
	})
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeUnparseableDate))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeValidation))
	assert.Equal(t, http.StatusUnauthorized, GetHTTPStatus(ErrCodeInvalidCredentials))
	assert.Equal(t, http.StatusForbidden, GetHTTPStatus(ErrCodeAccountLocked))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeAlreadyExists))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
	assert.Equal(t, http.StatusServiceUnavailable, GetHTTPStatus(ErrCodeStoreUnavailable))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_NEVER_HEARD_OF"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 45, 2, 20)

	assert.True(t, resp.Success)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.PageSize)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(ErrCodeNotFound, "Client not found", "req-123")

	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Client not found", resp.Error.Message)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}
