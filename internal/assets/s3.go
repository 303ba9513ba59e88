package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/closetsync/internal/category"
	"github.com/dmitrijs2005/closetsync/internal/common"
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/dmitrijs2005/closetsync/internal/timex"
)

// S3API is the part of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config holds connection settings for an S3-compatible endpoint
// (MinIO in development).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
	Prefix       string
}

var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

// NewS3Client builds a path-style S3 client with static credentials.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// S3Store keeps files as objects keyed <prefix>/<user_id>/<category>/<filename>.
type S3Store struct {
	client S3API
	bucket string
	prefix string
	logger logging.Logger
}

func NewS3Store(client S3API, bucket, prefix string, logger logging.Logger) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

func (s *S3Store) key(userID string, c category.Category, filename string) string {
	return path.Join(s.prefix, userID, string(c), filename)
}

func isMissing(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed"
}

func (s *S3Store) put(ctx context.Context, key string, data []byte, exclusive bool) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(MIMETypeFor(key)),
	}
	if exclusive {
		in.IfNoneMatch = aws.String("*")
	}

	_, err := s.client.PutObject(ctx, in)
	if err != nil {
		if isPreconditionFailed(err) {
			return fmt.Errorf("%w: %s", common.ErrorAlreadyExists, key)
		}
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, userID string, c category.Category, data []byte) (string, error) {
	if err := validateDir(userID, c); err != nil {
		return "", err
	}
	name, err := newFilename(c, SniffExtension(data), timex.Now())
	if err != nil {
		return "", err
	}
	if err := s.put(ctx, s.key(userID, c, name), data, true); err != nil {
		return "", err
	}
	return name, nil
}

func (s *S3Store) Replace(ctx context.Context, userID string, c category.Category, filename string, data []byte) error {
	if err := validatePath(userID, c, filename); err != nil {
		return err
	}
	return s.put(ctx, s.key(userID, c, filename), data, false)
}

func (s *S3Store) Get(ctx context.Context, userID, filename string, declared category.Category) ([]byte, category.Category, error) {
	if err := validatePath(userID, category.Default, filename); err != nil {
		return nil, "", err
	}
	for _, c := range category.FallbackOrder(declared) {
		key := s.key(userID, c, filename)
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if isMissing(err) {
				continue
			}
			return nil, "", fmt.Errorf("get object %s: %w", key, err)
		}
		data, err := io.ReadAll(out.Body)
		_ = out.Body.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read object %s: %w", key, err)
		}
		return data, c, nil
	}
	return nil, "", fmt.Errorf("%w: %s", common.ErrorNotFound, filename)
}

func (s *S3Store) Delete(ctx context.Context, userID, filename string, c category.Category) error {
	if err := validatePath(userID, c, filename); err != nil {
		return err
	}
	key := s.key(userID, c, filename)

	// DeleteObject succeeds for absent keys, so probe first to report them.
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isMissing(err) {
			s.logger.Warn(ctx, "file already missing on delete", "user_id", userID, "category", c, "filename", filename)
			return nil
		}
		return fmt.Errorf("head object %s: %w", key, err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) ListFileInfo(ctx context.Context, userID string, c category.Category) ([]FileInfo, error) {
	if err := validateDir(userID, c); err != nil {
		return nil, err
	}
	prefix := path.Join(s.prefix, userID, string(c)) + "/"

	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	result := []FileInfo{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			result = append(result, FileInfo{
				Name:     name,
				Category: c,
				Size:     aws.ToInt64(obj.Size),
				ModTime:  aws.ToTime(obj.LastModified).UTC(),
			})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
