package db

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixIteration(t *testing.T) {
	l, err := NewMemLevelDB()
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.WriteBatch(map[string][]byte{
		"tick:a:2": []byte("2"),
		"tick:a:1": []byte("1"),
		"tick:b:1": []byte("x"),
		"run:a":    []byte("r"),
	}))

	iter := l.NewIterator([]byte("tick:a:"))
	defer iter.Release()
	var got []string
	for iter.Next() {
		got = append(got, string(iter.Value()))
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestGetMissingKey(t *testing.T) {
	l, err := NewLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Get([]byte("missing"))
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, l.Put([]byte("k"), []byte("v")))
	ok, err := l.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)
}
