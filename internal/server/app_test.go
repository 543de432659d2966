package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/config"
	"github.com/dmitrijs2005/timecapsule/internal/server/filestore"
	"github.com/dmitrijs2005/timecapsule/internal/server/mailer"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestNewFileStore_Local(t *testing.T) {
	cfg := testConfig()
	cfg.UploadsDir = filepath.Join(t.TempDir(), "uploads")

	s, err := newFileStore(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &filestore.LocalStore{}, s)

	info, err := os.Stat(cfg.UploadsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewFileStore_S3(t *testing.T) {
	cfg := testConfig()
	cfg.StorageBackend = config.StorageS3

	s, err := newFileStore(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &filestore.S3Store{}, s)
}

func TestNewFileStore_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.StorageBackend = "ftp"
	_, err := newFileStore(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.StorageBackend = config.StorageS3
	cfg.S3Bucket = ""
	_, err = newFileStore(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}

func TestNewMailTransport(t *testing.T) {
	cfg := testConfig()
	cfg.SMTPHost = ""
	tr, err := newMailTransport(cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &mailer.LogTransport{}, tr)

	cfg.SMTPHost = "smtp.example.com"
	tr, err = newMailTransport(cfg, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &mailer.SMTPTransport{}, tr)
}

func TestMaxUploadBytes(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFileSize = 10
	cfg.MaxFiles = 3
	assert.Equal(t, int64(30+1<<20), maxUploadBytes(cfg))
}
