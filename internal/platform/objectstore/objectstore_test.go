package objectstore

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, "tekstil", time.Hour)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, Object{Key: "abc.xlsx", ContentType: "application/xlsx", Data: []byte{0x50, 0x4b, 0x00, 0x01}}))

	obj, err := store.Get(ctx, "abc.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "application/xlsx", obj.ContentType)
	assert.Equal(t, []byte{0x50, 0x4b, 0x00, 0x01}, obj.Data)
	assert.True(t, mr.Exists("tekstil:artifact:abc.xlsx"))

	mr.FastForward(2 * time.Hour)
	_, err = store.Get(ctx, "abc.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreMissing(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	_, err := NewRedisStore(client, "tekstil", 0).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeS3 struct {
	objects map[string]*s3.PutObjectInput
	data    map[string][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.objects == nil {
		f.objects = map[string]*s3.PutObjectInput{}
		f.data = map[string][]byte{}
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = in
	f.data[aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	put, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(f.data[aws.ToString(in.Key)])),
		ContentType: put.ContentType,
	}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	fake := &fakeS3{}
	store := NewS3StoreWithClient(fake, "laporan", "tekstil")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Object{Key: "id-1.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}))
	put := fake.objects["tekstil/exports/id-1.pdf"]
	require.NotNil(t, put)
	assert.Equal(t, "laporan", aws.ToString(put.Bucket))
	assert.Equal(t, int64(4), aws.ToInt64(put.ContentLength))

	obj, err := store.Get(ctx, "id-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, "%PDF", string(obj.Data))

	_, err = store.Get(ctx, "other.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.Error(t, err)
}
