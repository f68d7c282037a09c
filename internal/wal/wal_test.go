package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pouchkv/pouch/pkg/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTemp(t *testing.T) (*WAL, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wal.log")
	w, err := Open(zap.NewNop(), path)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w, path
}

func TestAppendThenReplayPreservesOrder(t *testing.T) {
	w, _ := openTemp(t)

	appended := []command.Command{
		&command.Set{Key: "k", Value: "v", ExpirySeconds: 60, ExpiryTS: 1700000060},
		&command.LPush{Key: "l", Values: []string{"a", "b"}},
		&command.Delete{Keys: []string{"k"}},
	}
	for _, cmd := range appended {
		require.NoError(t, w.Append(cmd))
	}

	var replayed []command.Command
	count, err := w.Replay(func(cmd command.Command) { replayed = append(replayed, cmd) })
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Equal(t, appended, replayed)
}

func TestReplayEmptyLog(t *testing.T) {
	w, _ := openTemp(t)

	count, err := w.Replay(func(command.Command) { t.Fatal("nothing to apply") })
	assert.Equal(t, 0, count)
	require.ErrorIs(t, err, ErrEmptyLog)
}

func TestReplayDiscardsPartialTrailingRecord(t *testing.T) {
	w, path := openTemp(t)
	require.NoError(t, w.Append(&command.Incr{Key: "n"}))

	// Simulate a crash mid-append: a record without its terminating
	// newline.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"action":"INCR","key":`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var replayed []command.Command
	count, err := w.Replay(func(cmd command.Command) { replayed = append(replayed, cmd) })
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Equal(t, []command.Command{&command.Incr{Key: "n"}}, replayed)
}

func TestReplayAbortsOnCorruptRecord(t *testing.T) {
	w, path := openTemp(t)
	require.NoError(t, w.Append(&command.Incr{Key: "n"}))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage but complete\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	count, err := w.Replay(func(command.Command) {})
	assert.Equal(t, 1, count)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrEmptyLog)
}

func TestRecordsAreNewlineFramedJSON(t *testing.T) {
	w, path := openTemp(t)
	require.NoError(t, w.Append(&command.Set{Key: "k", Value: "v", ExpirySeconds: 0, ExpiryTS: 42}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"action":"SET","key":"k","value":"v","expiry_seconds":0,"expiry_ts":42}`,
		string(data[:len(data)-1]))
	assert.EqualValues(t, '\n', data[len(data)-1])
}
