package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHost(t *testing.T, name string, roles ...Role) *Host {
	t.Helper()
	h, err := NewHost(name, roles...)
	require.NoError(t, err)
	return h
}

func TestInventory(t *testing.T) {
	t.Parallel()

	inv, err := New(mustHost(t, "c"), mustHost(t, "a"), mustHost(t, "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, inv.Names())
	assert.Equal(t, 3, inv.Len())

	err = inv.Add(mustHost(t, "a"))
	assert.ErrorIs(t, err, ErrDuplicateHost)

	h, ok := inv.Get("a")
	require.True(t, ok)
	h.SetSelected(false)
	selected := inv.Selected()
	require.Len(t, selected, 2)
	assert.Equal(t, "c", selected[0].Name())
	assert.Equal(t, "b", selected[1].Name())

	require.NoError(t, inv.Remove("c"))
	assert.Equal(t, []string{"a", "b"}, inv.Names())
	assert.ErrorIs(t, inv.Remove("c"), ErrUnknownHost)

	profiles := inv.Profiles()
	require.Len(t, profiles, 2)
	assert.False(t, profiles[0].Selected)
	assert.True(t, profiles[1].Selected)
}

func TestInventory_ZeroValue(t *testing.T) {
	t.Parallel()

	var inv Inventory
	require.NoError(t, inv.Add(mustHost(t, "a")))
	assert.Equal(t, []string{"a"}, inv.Names())
	assert.Error(t, inv.Add(nil))
}
