package feedback

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "feedback.json"))
	require.NoError(t, err)
	return s
}

func TestStore_AppendThenRead(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	rec, err := s.Append(map[string]any{"rating": float64(5), "comment": "great"}, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2026-03-14 09:26:53", rec.Timestamp)
	assert.Equal(t, "alice", rec.SubmittedBy)

	list := s.Read()
	require.Len(t, list, 1)
	assert.Equal(t, rec, list[len(list)-1])
	assert.Equal(t, "great", list[0].Fields["comment"])
}

func TestStore_AppendAnonymous(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.Append(map[string]any{"comment": "anon"}, "")
	require.NoError(t, err)
	assert.Empty(t, rec.SubmittedBy)
}

func TestStore_ReadMissingFile(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.Read())
}

func TestStore_CorruptFileReadsEmptyAndRecovers(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{{{not json"), 0o644))

	assert.Empty(t, s.Read())

	// The next append must leave a valid array behind.
	_, err := s.Append(map[string]any{"comment": "after corruption"}, "")
	require.NoError(t, err)
	list := s.Read()
	require.Len(t, list, 1)
	assert.Equal(t, "after corruption", list[0].Fields["comment"])
}

func TestStore_ConcurrentAppendsLoseNothing(t *testing.T) {
	s := newTestStore(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(map[string]any{"n": float64(i)}, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Read(), n)
}
