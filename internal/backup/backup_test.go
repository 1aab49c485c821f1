package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/master-pd/marpd/internal/store"
)

func newTestManager(t *testing.T, maxBackups int) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir(), 10_000, 100)
	require.NoError(t, err)
	m, err := NewManager(st, t.TempDir(), maxBackups)
	require.NoError(t, err)
	return m, st
}

func TestCreateAndList(t *testing.T) {
	m, st := newTestManager(t, 30)
	_, err := st.CreateUser(1, store.UserSeed{Username: "u1", FirstName: "U1"})
	require.NoError(t, err)

	path, err := m.Create()
	require.NoError(t, err)
	require.Contains(t, path, "backup_")

	names, err := m.List()
	require.NoError(t, err)
	require.Len(t, names, 1)
}

func TestRestoreRoundTrip(t *testing.T) {
	m, st := newTestManager(t, 30)
	_, err := st.CreateUser(1, store.UserSeed{Username: "u1", FirstName: "U1"})
	require.NoError(t, err)
	coins := int64(4321)
	require.NoError(t, st.UpdateUser(1, store.UserPatch{Coins: &coins}))

	_, err = m.Create()
	require.NoError(t, err)

	names, err := m.List()
	require.NoError(t, err)
	require.Len(t, names, 1)

	// Wreck the live state, then restore.
	zero := int64(0)
	require.NoError(t, st.UpdateUser(1, store.UserPatch{Coins: &zero}))
	_, err = st.CreateUser(2, store.UserSeed{Username: "u2", FirstName: "U2"})
	require.NoError(t, err)

	require.NoError(t, m.Restore(names[0]))

	u, err := st.GetUser(1)
	require.NoError(t, err)
	require.Equal(t, int64(4321), u.Coins)

	// User 2 was created after the snapshot and must be gone.
	_, err = st.GetUser(2)
	require.Error(t, err)

	// The catalog survives the round trip.
	require.NotEmpty(t, st.Items())
}

func TestRestoreUnknownBackup(t *testing.T) {
	m, _ := newTestManager(t, 30)
	require.Error(t, m.Restore("backup_20260101_000000"))
}

func TestPruneKeepsNewest(t *testing.T) {
	m, _ := newTestManager(t, 2)

	// Archive names carry second precision; space the snapshots out.
	for i := 0; i < 3; i++ {
		_, err := m.Create()
		require.NoError(t, err)
		time.Sleep(1100 * time.Millisecond)
	}

	names, err := m.List()
	require.NoError(t, err)
	require.Len(t, names, 2)

	// Newest first, so the remaining two sort after the pruned one.
	require.True(t, names[0] > names[1])
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(t, 30)

	_, err := m.Create()
	require.NoError(t, err)
	names, err := m.List()
	require.NoError(t, err)
	require.Len(t, names, 1)

	require.NoError(t, m.Delete(names[0]))
	names, err = m.List()
	require.NoError(t, err)
	require.Empty(t, names)
}
