package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicMessage(t *testing.T) {
	req := require.New(t)

	// Business errors keep their text even when wrapped
	req.Equal(ErrRoomNotFound.Error(), PublicMessage(fmt.Errorf("%w: 42", ErrRoomNotFound)))
	req.Equal(ErrInvalidContent.Error(), PublicMessage(fmt.Errorf("%w: too long", ErrInvalidContent)))

	// Infrastructure details never leak
	req.Equal("internal error", PublicMessage(fmt.Errorf("badger: value log corrupted")))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"not participant", ErrNotParticipant, http.StatusForbidden},
		{"validation", fmt.Errorf("%w: blank", ErrInvalidContent), http.StatusBadRequest},
		{"not found", ErrRoomNotFound, http.StatusNotFound},
		{"name taken", ErrRoomNameTaken, http.StatusConflict},
		{"room full", ErrRoomFull, http.StatusConflict},
		{"unknown", fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
