package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Parts(t *testing.T) {
	tests := []struct {
		key    Key
		domain string
		action string
	}{
		{"State.Enter", "State", "Enter"},
		{"UI.Action", "UI", "Action"},
		{"Room.Player.Joined", "Room", "Player.Joined"},
		{"Bare", "Bare", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			assert.Equal(t, tt.domain, tt.key.Domain())
			assert.Equal(t, tt.action, tt.key.Action())
		})
	}
}

func TestKey_Validate(t *testing.T) {
	assert.NoError(t, KeyStateExit.Validate())
	assert.ErrorIs(t, Key("").Validate(), ErrInvalidKey)
	assert.ErrorIs(t, Key("   ").Validate(), ErrInvalidKey)
}

func TestNewTransitionRequest(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		req, err := NewTransitionRequest(StateBoot, StateLogin, at)
		require.NoError(t, err)
		assert.Equal(t, StateBoot, req.From)
		assert.Equal(t, StateLogin, req.To)
		assert.Equal(t, at, req.RequestedAt)
		assert.NotEmpty(t, req.ID)
	})

	t.Run("same state is rejected", func(t *testing.T) {
		_, err := NewTransitionRequest(StateBoot, StateBoot, at)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoOpTransition)

		var noop *NoOpTransitionError
		require.True(t, errors.As(err, &noop))
		assert.Equal(t, StateBoot, noop.State)
	})

	t.Run("empty target is rejected", func(t *testing.T) {
		_, err := NewTransitionRequest(StateBoot, "", at)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("ids are unique", func(t *testing.T) {
		a, _ := NewTransitionRequest(StateBoot, StateLogin, at)
		b, _ := NewTransitionRequest(StateBoot, StateLogin, at)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestErrors_Is(t *testing.T) {
	assert.ErrorIs(t, &SignatureMismatchError{Key: "UI.Action"}, ErrSignatureMismatch)
	assert.ErrorIs(t, &HandlerFault{Key: "UI.Action", Handler: "a", Value: "boom"}, ErrHandlerFault)
	assert.NotErrorIs(t, &HandlerFault{}, ErrSignatureMismatch)
	assert.Contains(t, (&HandlerFault{Key: "UI.Action", Handler: "menu", Value: "boom"}).Error(), "menu")
}
