package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_ZeroValueIsSignedOut(t *testing.T) {
	var s Session
	uid, ok := s.UserID()
	assert.False(t, ok)
	assert.Empty(t, uid)
	assert.Empty(t, s.Token())
}

func TestSession_SignInAndOut(t *testing.T) {
	s := New(" u1 ", " tok ", Profile{DisplayName: "Ziggy"})
	uid, ok := s.UserID()
	require.True(t, ok)
	assert.Equal(t, "u1", uid)
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "Ziggy", s.Attribution().DisplayName)

	s.SignOut()
	_, ok = s.UserID()
	assert.False(t, ok)
	assert.Empty(t, s.Profile())

	blank := New("  ", "tok", Profile{})
	_, ok = blank.UserID()
	assert.False(t, ok)
}

func TestSession_SetProfileReturnsChangedFields(t *testing.T) {
	s := New("u1", "", Profile{DisplayName: "Ziggy", AvatarURL: "a.png"})

	patch := s.SetProfile(Profile{DisplayName: "Ziggy", AvatarURL: "b.png"})
	assert.Nil(t, patch.DisplayName)
	require.NotNil(t, patch.AvatarURL)
	assert.Equal(t, "b.png", *patch.AvatarURL)

	assert.True(t, s.SetProfile(Profile{DisplayName: "Ziggy", AvatarURL: "b.png"}).IsZero())
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New("u1", "tok", Profile{})
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.SignIn("u1", "tok", Profile{DisplayName: "x"})
				return
			}
			_, _ = s.UserID()
			_ = s.Token()
		}()
	}
	wg.Wait()
	uid, ok := s.UserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", uid)
}
