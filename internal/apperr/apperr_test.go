package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", fmt.Errorf("%w: spotifyUserId is required", ErrValidation), http.StatusBadRequest},
		{"self request", ErrSelfRequest, http.StatusBadRequest},
		{"upstream auth", fmt.Errorf("%w: invalid_grant", ErrUpstreamAuth), http.StatusBadRequest},
		{"upstream profile", ErrUpstreamProfile, http.StatusBadRequest},
		{"not found", fmt.Errorf("friend request: %w", ErrNotFound), http.StatusNotFound},
		{"store", fmt.Errorf("%w: connection refused", ErrStore), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.err); got != tt.want {
				t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
