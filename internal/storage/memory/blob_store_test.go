package memory

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte("content")
	uri, err := store.PutObject(context.Background(), "listing/abc.html", "text/html", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "memory://listing/abc.html", uri)

	payload[0] = 'C'
	stored, ok := store.Object("listing/abc.html")
	require.True(t, ok)
	assert.Equal(t, "content", string(stored))
	assert.Equal(t, []string{"listing/abc.html"}, store.Paths())
}
