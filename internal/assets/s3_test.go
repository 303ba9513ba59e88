package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	S3API
	mu      sync.Mutex
	objects map[string][]byte
	deletes []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if aws.ToString(in.IfNoneMatch) == "*" {
		if _, ok := f.objects[key]; ok {
			return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "exists"}
		}
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.deletes = append(f.deletes, key)
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(time.Unix(1700000000, 0)),
		})
	}
	return out, nil
}

func newS3Store(t *testing.T) (*S3Store, *fakeS3) {
	t.Helper()
	f := newFakeS3()
	return NewS3Store(f, "bucket", "/assets/", logging.NewDiscardLogger()), f
}

func TestS3Store_PutAndGet(t *testing.T) {
	s, f := newS3Store(t)
	ctx := context.Background()
	data := pngBytes(t, 2, 2)

	name, err := s.Put(ctx, "u1", category.Primary, data)
	require.NoError(t, err)
	assert.Contains(t, f.objects, "assets/u1/primary/"+name)

	got, found, err := s.Get(ctx, "u1", name, category.Primary)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, category.Primary, found)
}

func TestS3Store_PutConflictIsAlreadyExists(t *testing.T) {
	s, _ := newS3Store(t)
	ctx := context.Background()

	orig := newFilename
	t.Cleanup(func() { newFilename = orig })
	newFilename = func(c category.Category, ext string, now time.Time) (string, error) {
		return "primary_same.png", nil
	}

	_, err := s.Put(ctx, "u1", category.Primary, []byte("a"))
	require.NoError(t, err)
	_, err = s.Put(ctx, "u1", category.Primary, []byte("b"))
	assert.True(t, errors.Is(err, common.ErrorAlreadyExists))
}

func TestS3Store_GetFallback(t *testing.T) {
	s, _ := newS3Store(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "u1", category.Derived, "subject_x.png", []byte("d")))

	got, found, err := s.Get(ctx, "u1", "subject_x.png", category.Subject)
	require.NoError(t, err)
	assert.Equal(t, []byte("d"), got)
	assert.Equal(t, category.Derived, found)

	_, _, err = s.Get(ctx, "u1", "none.png", category.Subject)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestS3Store_DeleteMissingIsTolerated(t *testing.T) {
	s, f := newS3Store(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "u1", "gone.png", category.Primary))
	assert.Empty(t, f.deletes)

	require.NoError(t, s.Replace(ctx, "u1", category.Primary, "here.png", []byte("h")))
	require.NoError(t, s.Delete(ctx, "u1", "here.png", category.Primary))
	assert.Equal(t, []string{"assets/u1/primary/here.png"}, f.deletes)
}

func TestS3Store_ListFileInfo(t *testing.T) {
	s, _ := newS3Store(t)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, "u1", category.Primary, "a.png", []byte("aa")))
	require.NoError(t, s.Replace(ctx, "u1", category.Subject, "b.png", []byte("b")))
	require.NoError(t, s.Replace(ctx, "u2", category.Primary, "c.png", []byte("c")))

	files, err := s.ListFileInfo(ctx, "u1", category.Primary)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, FileInfo{Name: "a.png", Category: category.Primary, Size: 2, ModTime: time.Unix(1700000000, 0).UTC()}, files[0])
}

func TestNewS3Client_PropagatesConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("boom")
	}

	_, err := NewS3Client(context.Background(), S3Config{Region: "us-east-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestNewS3Client_Builds(t *testing.T) {
	c, err := NewS3Client(context.Background(), S3Config{
		AccessKey: "k", SecretKey: "s", Region: "us-east-1", BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
