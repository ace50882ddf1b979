package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/heinrichb/stocksync/pkg/config"
)

type fakePutter struct {
	bucket, key string
	body        string
	length      int64
	err         error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.length = aws.ToInt64(in.ContentLength)
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	return &s3.PutObjectOutput{}, nil
}

var fixedTime = time.Date(2024, 3, 9, 6, 30, 15, 0, time.UTC)

func TestNewS3Archiver_Validation(t *testing.T) {
	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewS3Archiver(context.Background(), config.ArchiveConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("half of a key pair", func(t *testing.T) {
		_, err := NewS3Archiver(context.Background(), config.ArchiveConfig{Bucket: "feeds", AccessKey: "id"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be set together")
	})

	t.Run("static credentials and custom endpoint", func(t *testing.T) {
		a, err := NewS3Archiver(context.Background(), config.ArchiveConfig{
			Bucket:       "feeds",
			Prefix:       "stock/",
			Endpoint:     "http://localhost:9000",
			AccessKey:    "id",
			SecretKey:    "secret",
			UsePathStyle: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "feeds", a.bucket)
		assert.NotNil(t, a.client)
	})
}

func TestKey(t *testing.T) {
	a := &S3Archiver{prefix: "feeds/"}
	assert.Equal(t, "feeds/stock_2024-03-09_06-30-15.txt", a.Key("/tmp/stock.txt", fixedTime))
	assert.Equal(t, "feeds/Stock_2024-03-09_06-30-15", a.Key(`C:\Temp\Stock`, fixedTime))
}

func TestUpload(t *testing.T) {
	local := filepath.Join(t.TempDir(), "stock.txt")
	require.NoError(t, os.WriteFile(local, []byte("A1|E1|Shirt|B|C|M|Red|S|10|19.99\n"), 0o644))

	putter := &fakePutter{}
	a := &S3Archiver{
		client: putter,
		bucket: "feeds",
		prefix: "stock/",
		logger: zaptest.NewLogger(t),
		now:    func() time.Time { return fixedTime },
	}

	key, err := a.Upload(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, "stock/stock_2024-03-09_06-30-15.txt", key)
	assert.Equal(t, "feeds", putter.bucket)
	assert.Equal(t, key, putter.key)
	assert.Equal(t, "A1|E1|Shirt|B|C|M|Red|S|10|19.99\n", putter.body)
	assert.Equal(t, int64(len(putter.body)), putter.length)
}

func TestUpload_Errors(t *testing.T) {
	a := &S3Archiver{client: &fakePutter{}, bucket: "feeds", logger: zaptest.NewLogger(t), now: time.Now}
	_, err := a.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	local := filepath.Join(t.TempDir(), "stock.txt")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))
	denied := errors.New("access denied")
	a.client = &fakePutter{err: denied}
	_, err = a.Upload(context.Background(), local)
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "s3://feeds/")
}
