package storage

import (
	"testing"

	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("https://files.example.com/", false)
	assert.Equal(t, "files.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://localhost:9000", true)
	assert.Equal(t, "localhost:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("localhost:9000", true)
	assert.Equal(t, "localhost:9000", host)
	assert.True(t, secure)
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", endpointURL("s3.example.com", true))
	assert.Equal(t, "http://s3.example.com", endpointURL("//s3.example.com", false))
	assert.Equal(t, "http://minio:9000", endpointURL("http://minio:9000", true))
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(config.StorageConfig{Provider: "minio"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")

	_, err = New(config.StorageConfig{Provider: "sevalla", Endpoint: "s3.example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")

	_, err = New(config.StorageConfig{Provider: "ftp"})
	require.Error(t, err)
}

func TestNewMinioClientBuildsWithoutNetwork(t *testing.T) {
	client, err := New(config.StorageConfig{
		Provider:  "minio",
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "sales",
	})
	require.NoError(t, err)
	assert.IsType(t, &MinioClient{}, client)
}
