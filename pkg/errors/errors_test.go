package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsUpstream(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   ErrorType
		code   int
	}{
		{"not found", http.StatusNotFound, ErrorTypeNotFound, http.StatusNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrorTypeRateLimited, http.StatusServiceUnavailable},
		{"server error", http.StatusInternalServerError, ErrorTypeUpstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &UpstreamError{Upstream: "tmdb", Status: tt.status, URL: "/movie/1"}
			err := AsUpstream("fetch movie", fmt.Errorf("get: %w", up))

			assert.Equal(t, tt.want, TypeOf(err))
			assert.Equal(t, tt.code, StatusOf(err))
			assert.ErrorIs(t, err, up)
		})
	}
}

func TestAsUpstream_NonHTTP(t *testing.T) {
	err := AsUpstream("fetch", fmt.Errorf("dial tcp: refused"))
	assert.True(t, IsUpstream(err))
	assert.False(t, IsNotFound(err))
}

func TestUpstreamError_Temporary(t *testing.T) {
	assert.True(t, (&UpstreamError{Status: 429}).Temporary())
	assert.False(t, (&UpstreamError{Status: 500}).Temporary())
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("work OL1W")))
	assert.True(t, IsBadRequest(BadRequest("bad kind")))
	assert.True(t, IsConfiguration(Configuration("TMDB_API_KEY is not set")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("plain")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(BadRequest("x")))
}
