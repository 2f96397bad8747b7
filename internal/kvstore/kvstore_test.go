package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_JSONRoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, SetJSON(ctx, m, "fav:pdv-1", []string{"a", "b"}, 0))
	var got []string
	require.NoError(t, GetJSON(ctx, m, "fav:pdv-1", &got))
	assert.Equal(t, []string{"a", "b"}, got)

	require.NoError(t, m.Delete(ctx, "fav:pdv-1"))
	_, err := m.Get(ctx, "fav:pdv-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "cart:1", []byte("x"), time.Hour))
	_, err := m.Get(ctx, "cart:1")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = m.Get(ctx, "cart:1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	v := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", v, 0))
	v[0] = 'z'
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
