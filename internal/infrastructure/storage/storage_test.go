package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dormbill/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceKey(t *testing.T) {
	pid := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "invoices/6ba7b810-9dad-11d1-80b4-00c04fd430c8/INV-202603-0001.pdf",
		InvoiceKey("/invoices/", pid, "INV-202603-0001"))
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8/INV-1.pdf", InvoiceKey("", pid, "INV-1"))
}

func TestNewS3DocumentStore(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket is required", func(t *testing.T) {
		_, err := NewS3DocumentStore(ctx, config.StorageConfig{Region: "us-east-1"})
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("presigns against a custom endpoint", func(t *testing.T) {
		store, err := NewS3DocumentStore(ctx, config.StorageConfig{
			Bucket:          "dorm-invoices",
			Region:          "us-east-1",
			Endpoint:        "http://localhost:9000",
			AccessKeyID:     "minio",
			SecretAccessKey: "minio-secret",
			UsePathStyle:    true,
		}, WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "dorm-invoices", store.Bucket())

		link, err := store.DownloadURL(ctx, "invoices/p/INV-1.pdf")
		require.NoError(t, err)
		u, err := url.Parse(link)
		require.NoError(t, err)
		assert.Equal(t, "localhost:9000", u.Host)
		assert.True(t, strings.HasPrefix(u.Path, "/dorm-invoices/invoices/p/INV-1.pdf"))
		assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))

		_, err = store.Put(ctx, "", nil, "application/pdf")
		assert.Error(t, err)
	})
}

func TestMemoryDocumentStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDocumentStore()

	loc, err := store.Put(ctx, "a/b.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "memory://a/b.pdf", loc)

	data, ok := store.Get("a/b.pdf")
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(data))

	link, err := store.DownloadURL(ctx, "a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, loc, link)

	_, err = store.DownloadURL(ctx, "missing")
	assert.Error(t, err)
}
