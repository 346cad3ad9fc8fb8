package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageFileName(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	assert.Equal(t, "Ada_Lovelace_20250203_040506.jpg", ImageFileName("Ada Lovelace", at))
	assert.Equal(t, "user_20250203_040506.jpg", ImageFileName("  ", at))
	assert.Equal(t, "a_b_20250203_040506.jpg", ImageFileName("a/../b", at))
	assert.Equal(t, "12345_20250203_040506.jpg", ImageFileName("12345", at))
}

type fakeDrive struct {
	name, folder, mime string
	size               int
	id                 string
	err                error
}

func (f *fakeDrive) Create(ctx context.Context, name, folderID, mimeType string, data []byte) (string, error) {
	f.name, f.folder, f.mime, f.size = name, folderID, mimeType, len(data)
	return f.id, f.err
}

func TestDriveStoreUpload(t *testing.T) {
	files := &fakeDrive{id: "file-123"}
	store := NewDriveStore(files, "folder-9", 0, nil)

	url, err := store.Upload(context.Background(), "Ada_1.jpg", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?id=file-123", url)
	assert.Equal(t, "Ada_1.jpg", files.name)
	assert.Equal(t, "folder-9", files.folder)
	assert.Equal(t, "image/jpeg", files.mime)
	assert.Equal(t, 3, files.size)
}

func TestDriveStoreUpload_Errors(t *testing.T) {
	_, err := NewDriveStore(&fakeDrive{err: errors.New("403")}, "f", time.Second, nil).Upload(context.Background(), "x.jpg", nil)
	assert.Error(t, err)

	_, err = NewDriveStore(&fakeDrive{}, "f", time.Second, nil).Upload(context.Background(), "x.jpg", nil)
	assert.Error(t, err, "empty id")
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreUpload(t *testing.T) {
	client := &fakeS3{}
	store, err := NewS3Store(client, S3Config{Bucket: "meals", Prefix: "/meal-images/", Region: "eu-west-1"}, nil)
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "Ada_1.jpg", []byte("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://meals.s3.eu-west-1.amazonaws.com/meal-images/Ada_1.jpg", url)
	assert.Equal(t, "meal-images/Ada_1.jpg", aws.ToString(client.input.Key))
	assert.Equal(t, "image/jpeg", aws.ToString(client.input.ContentType))
	assert.Equal(t, []byte("jpeg"), client.body)
}

func TestS3StoreUpload_PublicBaseURL(t *testing.T) {
	store, err := NewS3Store(&fakeS3{}, S3Config{Bucket: "meals", PublicBaseURL: "http://localhost:4566/meals/"}, nil)
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "a b.jpg", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566/meals/a%20b.jpg", url)
}

func TestS3Store_Errors(t *testing.T) {
	_, err := NewS3Store(nil, S3Config{Bucket: "b"}, nil)
	assert.Error(t, err)
	_, err = NewS3Store(&fakeS3{}, S3Config{}, nil)
	assert.Error(t, err)

	store, _ := NewS3Store(&fakeS3{err: errors.New("denied")}, S3Config{Bucket: "b"}, nil)
	_, err = store.Upload(context.Background(), "x.jpg", nil)
	assert.Error(t, err)
}
