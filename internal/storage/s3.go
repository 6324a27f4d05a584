package storage

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
)

// S3Client is the subset of *s3.Client the source and sink call.
type S3Client interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner signs GET URLs.
type Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Uploader streams object bodies.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3API bundles the S3 collaborators built from one AWS config.
type S3API struct {
	Client    S3Client
	Presigner Presigner
	Uploader  Uploader
}

// NewS3API loads AWS config for cfg. Static keys and a custom endpoint are
// optional; a custom endpoint switches to path-style addressing.
func NewS3API(ctx context.Context, cfg config.StorageConfig) (*S3API, error) {
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "storage: load aws config")
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return &S3API{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Uploader:  manager.NewUploader(client),
	}, nil
}

// S3Source reads PDFs under one bucket prefix.
type S3Source struct {
	client S3Client
	loc    config.Location
}

// NewS3Source creates an S3Source.
func NewS3Source(client S3Client, loc config.Location) *S3Source {
	return &S3Source{client: client, loc: loc}
}

// List returns every .pdf object under the prefix. IDs are full object keys.
func (s *S3Source) List(ctx context.Context) ([]model.DocumentRef, error) {
	objs, err := listObjects(ctx, s.client, s.loc.Bucket, s.loc.Prefix)
	if err != nil {
		return nil, err
	}
	var refs []model.DocumentRef
	for _, o := range objs {
		if !isPDF(o.Key) {
			continue
		}
		refs = append(refs, model.DocumentRef{
			ID:           o.Key,
			Name:         path.Base(o.Key),
			Size:         o.Size,
			LastModified: o.LastModified,
		})
	}
	return refs, nil
}

// Fetch downloads one object.
func (s *S3Source) Fetch(ctx context.Context, id string) ([]byte, error) {
	return getObject(ctx, s.client, s.loc.Bucket, id)
}

// S3Sink writes artifacts under one bucket prefix.
type S3Sink struct {
	api *S3API
	loc config.Location
}

// NewS3Sink creates an S3Sink.
func NewS3Sink(api *S3API, loc config.Location) *S3Sink {
	return &S3Sink{api: api, loc: loc}
}

func (s *S3Sink) fullKey(key string) string {
	return s.loc.Prefix + strings.TrimPrefix(key, "/")
}

// Put uploads body.
func (s *S3Sink) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.api.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.loc.Bucket),
		Key:         aws.String(s.fullKey(key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return eris.Wrapf(err, "storage: upload %s", key)
	}
	return nil
}

// Get downloads key.
func (s *S3Sink) Get(ctx context.Context, key string) ([]byte, error) {
	return getObject(ctx, s.api.Client, s.loc.Bucket, s.fullKey(key))
}

// List returns objects under prefix with keys relative to the sink prefix.
func (s *S3Sink) List(ctx context.Context, prefix string) ([]Object, error) {
	objs, err := listObjects(ctx, s.api.Client, s.loc.Bucket, s.fullKey(prefix))
	if err != nil {
		return nil, err
	}
	for i := range objs {
		objs[i].Key = strings.TrimPrefix(objs[i].Key, s.loc.Prefix)
	}
	return objs, nil
}

// Delete removes key.
func (s *S3Sink) Delete(ctx context.Context, key string) error {
	_, err := s.api.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return eris.Wrapf(err, "storage: delete %s", key)
	}
	return nil
}

// Link presigns a GET for key valid for ttl.
func (s *S3Sink) Link(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.api.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.loc.Bucket),
		Key:    aws.String(s.fullKey(key)),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", eris.Wrapf(err, "storage: presign %s", key)
	}
	return req.URL, nil
}

func listObjects(ctx context.Context, client S3Client, bucket, prefix string) ([]Object, error) {
	p := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	var out []Object
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, eris.Wrapf(err, "storage: list s3://%s/%s", bucket, prefix)
		}
		for _, o := range page.Contents {
			key := aws.ToString(o.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			out = append(out, Object{
				Key:          key,
				Size:         aws.ToInt64(o.Size),
				LastModified: aws.ToTime(o.LastModified),
			})
		}
	}
	return out, nil
}

func getObject(ctx context.Context, client S3Client, bucket, key string) ([]byte, error) {
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "storage: download s3://%s/%s", bucket, key)
	}
	defer result.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "storage: read s3://%s/%s", bucket, key)
	}
	return data, nil
}
