package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vango-dev/counsel/internal/errors"
)

// S3Scheme prefixes a paths.uploads value that stages into a bucket.
const S3Scheme = "s3://"

const metaFilename = "original-filename"

// S3Location is a bucket and key prefix parsed from s3://bucket/prefix.
type S3Location struct {
	Bucket string
	Prefix string
}

// IsS3URL reports whether raw names a bucket rather than a directory.
func IsS3URL(raw string) bool {
	return strings.HasPrefix(raw, S3Scheme)
}

// ParseS3URL parses s3://bucket/prefix. A non-empty prefix always ends
// with a slash.
func ParseS3URL(raw string) (S3Location, error) {
	if !IsS3URL(raw) {
		return S3Location{}, errors.New("C401").WithField("paths.uploads").
			WithDetail("expected s3://bucket/prefix, got " + raw)
	}
	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(raw, S3Scheme), "/")
	if bucket == "" {
		return S3Location{}, errors.New("C401").WithField("paths.uploads").
			WithDetail("bucket missing in " + raw)
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return S3Location{Bucket: bucket, Prefix: prefix}, nil
}

// NewS3Client builds a client for region. A non-empty endpoint selects an
// S3-compatible service addressed path-style.
func NewS3Client(region, endpoint string, creds aws.CredentialsProvider) *s3.Client {
	opts := s3.Options{
		Region:                     region,
		Credentials:                creds,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// S3Store stages selected images as objects under a bucket prefix. The
// original filename travels as object metadata.
type S3Store struct {
	client  *s3.Client
	loc     S3Location
	maxSize int64
	timeout time.Duration
	now     func() time.Time
}

// S3Option configures an S3Store.
type S3Option func(*S3Store)

// WithS3Clock replaces time.Now for expiry.
func WithS3Clock(now func() time.Time) S3Option {
	return func(s *S3Store) { s.now = now }
}

// WithS3Timeout bounds every bucket request. Default: 30 seconds.
func WithS3Timeout(d time.Duration) S3Option {
	return func(s *S3Store) { s.timeout = d }
}

// NewS3Store stages into loc through client. maxSize <= 0 disables the
// size limit.
func NewS3Store(client *s3.Client, loc S3Location, maxSize int64, opts ...S3Option) *S3Store {
	s := &S3Store{
		client:  client,
		loc:     loc,
		maxSize: maxSize,
		timeout: 30 * time.Second,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *S3Store) key(id string) *string { return aws.String(s.loc.Prefix + id) }

func (s *S3Store) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Save stages r and returns its ID. The body is buffered so the request
// can be signed; images are small.
func (s *S3Store) Save(filename, contentType string, size int64, r io.Reader) (string, error) {
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if s.maxSize > 0 && int64(buf.Len()) > s.maxSize {
		return "", ErrTooLarge
	}

	id := uuid.NewString()
	ctx, cancel := s.requestContext()
	defer cancel()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.loc.Bucket),
		Key:         s.key(id),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metaFilename: url.QueryEscape(filepath.Base(filename)),
		},
	})
	if err != nil {
		return "", errors.New("C110").WithDetail("image not staged").Wrap(err)
	}
	return id, nil
}

// Stat returns the metadata of a staged image.
func (s *S3Store) Stat(id string) (*File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    s.key(id),
	})
	if err != nil {
		return nil, notFound(err)
	}
	return fileFromObject(id, out.Metadata, out.ContentType, out.ContentLength), nil
}

// Open returns a staged image with its contents.
func (s *S3Store) Open(id string) (*File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	// No timeout: the body is read after this returns.
	out, err := s.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    s.key(id),
	})
	if err != nil {
		return nil, notFound(err)
	}
	f := fileFromObject(id, out.Metadata, out.ContentType, out.ContentLength)
	f.Reader = out.Body
	return f, nil
}

// Delete discards a staged image. Unknown IDs are ignored.
func (s *S3Store) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	ctx, cancel := s.requestContext()
	defer cancel()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    s.key(id),
	})
	return err
}

// Cleanup removes images staged more than maxAge ago, aged by the
// object's last modification.
func (s *S3Store) Cleanup(maxAge time.Duration) error {
	cutoff := s.now().Add(-maxAge)

	ctx, cancel := s.requestContext()
	defer cancel()
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.loc.Bucket),
		Prefix: aws.String(s.loc.Prefix),
	})
	var expired []string
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil || obj.LastModified.After(cutoff) {
				continue
			}
			expired = append(expired, *obj.Key)
		}
	}
	for _, key := range expired {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.loc.Bucket),
			Key:    aws.String(key),
		}); err != nil {
			return err
		}
	}
	return nil
}

func fileFromObject(id string, meta map[string]string, contentType *string, size *int64) *File {
	f := &File{ID: id, Filename: id, ContentType: "application/octet-stream"}
	if name, err := url.QueryUnescape(meta[metaFilename]); err == nil && name != "" {
		f.Filename = name
	}
	if contentType != nil {
		f.ContentType = *contentType
	}
	if size != nil {
		f.Size = *size
	}
	return f
}

// notFound maps missing objects to ErrNotFound and keeps other failures.
func notFound(err error) error {
	var (
		missing *types.NotFound
		noKey   *types.NoSuchKey
	)
	if stderrors.As(err, &missing) || stderrors.As(err, &noKey) {
		return ErrNotFound
	}
	return err
}
