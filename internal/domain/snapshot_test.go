package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSnapshot_WireFormat(t *testing.T) {
	raw, err := EncodeSnapshot([]CartItem{{ID: "2", Title: "Hat", ImageURL: "u", Price: 10, Quantity: 4}})
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id":"2","title":"Hat","image_url":"u","price":10,"quantity":4}]`, raw)
}

func TestEncodeSnapshot_EmptyIsArray(t *testing.T) {
	raw, err := EncodeSnapshot(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestDecodeSnapshot(t *testing.T) {
	items, err := DecodeSnapshot(`[{"id":"2","title":"Hat","image_url":"u","price":10,"quantity":4}]`)
	require.NoError(t, err)

	assert.Equal(t, []CartItem{{ID: "2", Title: "Hat", ImageURL: "u", Price: 10, Quantity: 4}}, items)
}

func TestDecodeSnapshot_Invalid(t *testing.T) {
	_, err := DecodeSnapshot(`[{"id":"2",`)

	require.ErrorIs(t, err, ErrCorruptSnapshot)
}
