package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockS3 answers HeadObject from a set of keys and records deletes.
type MockS3 struct {
	keys      map[string]bool
	headErr   error
	deleteErr error
	deleted   []string
}

func (m *MockS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if m.headErr != nil {
		return nil, m.headErr
	}
	if !m.keys[aws.ToString(in.Key)] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (m *MockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	m.deleted = append(m.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestR2Store_Exists(t *testing.T) {
	store := newR2Store(&MockS3{keys: map[string]bool{"posts/a.jpg": true}}, "bucket", "https://cdn.test/")
	ctx := context.Background()

	ok, err := store.Exists(ctx, "posts/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Exists(ctx, "posts/missing.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "https://cdn.test/posts/a.jpg", store.PublicURL("/posts/a.jpg"))
}

func TestR2Store_ExistsPropagatesOtherErrors(t *testing.T) {
	store := newR2Store(&MockS3{headErr: errors.New("timeout")}, "bucket", "https://cdn.test")

	_, err := store.Exists(context.Background(), "posts/a.jpg")

	assert.Error(t, err)
}

func TestR2Store_DeleteMissingKeySucceeds(t *testing.T) {
	mock := &MockS3{deleteErr: &smithy.GenericAPIError{Code: "NoSuchKey", Message: "gone"}}
	store := newR2Store(mock, "bucket", "https://cdn.test")

	assert.NoError(t, store.Delete(context.Background(), "posts/a.jpg"))
	assert.NoError(t, store.Delete(context.Background(), ""))
}

func TestR2Store_Delete(t *testing.T) {
	mock := &MockS3{}
	store := newR2Store(mock, "bucket", "https://cdn.test")

	require.NoError(t, store.Delete(context.Background(), "avatars/u1.png"))

	assert.Equal(t, []string{"avatars/u1.png"}, mock.deleted)
}
