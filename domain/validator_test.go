package domain

import (
	"cine-chat/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"Valid content", "hello", false},
		{"Empty", "", true},
		{"Blank", "   \t\n", true},
		{"Exactly at limit", strings.Repeat("a", MaxContentLength), false},
		{"Over limit", strings.Repeat("a", MaxContentLength+1), true},
		{"Multibyte counted as characters", strings.Repeat("é", MaxContentLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateContent(tt.content)
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidContent)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestNewRoom_Validate(t *testing.T) {
	tests := []struct {
		name    string
		room    NewRoom
		wantErr bool
	}{
		{"Valid with defaults", NewRoom{Name: "Dune night", CreatedBy: 1}, false},
		{"Name too short", NewRoom{Name: "D", CreatedBy: 1}, true},
		{"Blank name", NewRoom{Name: "   ", CreatedBy: 1}, true},
		{"Name too long", NewRoom{Name: strings.Repeat("n", 101), CreatedBy: 1}, true},
		{"Description too long", NewRoom{Name: "ok", Description: strings.Repeat("d", 256), CreatedBy: 1}, true},
		{"Capacity too small", NewRoom{Name: "ok", MaxParticipants: 1, CreatedBy: 1}, true},
		{"Capacity too large", NewRoom{Name: "ok", MaxParticipants: 101, CreatedBy: 1}, true},
		{"Missing creator", NewRoom{Name: "ok"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			err := tt.room.WithDefaults().Validate()
			if tt.wantErr {
				req.ErrorIs(err, errors.ErrInvalidRoom)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestNewRoom_Default_Capacity(t *testing.T) {
	require.Equal(t, DefaultMaxParticipants, NewRoom{Name: "ok"}.WithDefaults().MaxParticipants)
}

func TestPageRequest_Normalize(t *testing.T) {
	req := require.New(t)
	empty := ""

	req.Equal(20, PageRequest{}.Normalize(20).Limit)
	req.Equal(MaxPageSize, PageRequest{Limit: 1000}.Normalize(20).Limit)
	req.Nil(PageRequest{Cursor: &empty}.Normalize(20).Cursor)
}
