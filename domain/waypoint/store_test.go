package waypoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVStoreAppendFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.csv")
	store := NewCSVStore(path)

	require.NoError(t, store.Append(Waypoint{X: 1, Y: 2, Yaw: 0}))
	require.NoError(t, store.Append(Waypoint{X: -0.5, Y: 3.25, Yaw: 1.5707963267948966}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1.000000,2.000000,0.000000\n-0.500000,3.250000,1.570796\n", string(data))
}

func TestCSVStoreNeverTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.csv")
	require.NoError(t, os.WriteFile(path, []byte("9.000000,9.000000,0.000000\n"), 0o644))

	store := NewCSVStore(path)
	require.NoError(t, store.Append(Waypoint{X: 1}))

	got, err := store.ReadAll()
	require.NoError(t, err)
	want := []Waypoint{{X: 9, Y: 9}, {X: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadAll mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVStoreAppendUnwritablePath(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "missing", "waypoints.csv"))

	err := store.Append(Waypoint{X: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open waypoints file")
}

func TestCSVStoreReadAllMissingFile(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "none.csv"))

	got, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVStoreReadAllRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypoints.csv")
	require.NoError(t, os.WriteFile(path, []byte("1.0,2.0,0.0\nabc,2.0,0.0\n"), 0o644))

	_, err := NewCSVStore(path).ReadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}
