package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func fail() (string, error) { return "", errBoom }

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := New[string](Settings{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute})

	_, err := b.Execute(fail)
	require.ErrorIs(t, err, errBoom)
	_, err = b.Execute(fail)
	require.ErrorIs(t, err, errBoom)

	called := false
	_, err = b.Execute(func() (string, error) {
		called = true
		return "ok", nil
	})
	require.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
}

func TestBreaker_IsSuccessfulErrorsDoNotTrip(t *testing.T) {
	errBenign := errors.New("benign")
	b := New[string](Settings{
		MaxFailures:  1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, errBenign) },
	})

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (string, error) { return "", errBenign })
		require.ErrorIs(t, err, errBenign)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	var transitions []string
	b := New[string](Settings{
		MaxFailures: 1,
		OpenTimeout: 10 * time.Millisecond,
		OnStateChange: func(_ string, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	_, _ = b.Execute(fail)
	time.Sleep(20 * time.Millisecond)

	v, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
