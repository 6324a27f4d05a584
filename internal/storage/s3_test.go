package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/config"
)

type fakeS3 struct {
	objects map[string][]byte
	mod     map[string]time.Time
	deleted []string
	pageLen int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, mod: map[string]time.Time{}, pageLen: 2}
}

func (f *fakeS3) put(key, body string, mod time.Time) {
	f.objects[key] = []byte(body)
	f.mod[key] = mod
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := start + f.pageLen
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(f.mod[k]),
		})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakeUploader struct {
	s3 *fakeS3
}

func (u *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	u.s3.put(aws.ToString(in.Key), string(b), time.Now())
	return &manager.UploadOutput{Key: in.Key}, nil
}

type fakePresigner struct {
	expires time.Duration
}

func (p *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	p.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc"}, nil
}

func TestS3Source(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake.put("inputfolder/", "", ts)
	fake.put("inputfolder/a.pdf", "%PDF-a", ts)
	fake.put("inputfolder/b.PDF", "%PDF-b", ts)
	fake.put("inputfolder/c.docx", "nope", ts)
	fake.put("inputfolder/d.pdf", "%PDF-d", ts)
	fake.put("outputfolder/x.json", "{}", ts)

	src := NewS3Source(fake, config.Location{Bucket: "fin", Prefix: "inputfolder/"})
	refs, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 3)
	assert.Equal(t, "inputfolder/a.pdf", refs[0].ID)
	assert.Equal(t, "a.pdf", refs[0].Name)
	assert.Equal(t, int64(6), refs[0].Size)

	data, err := src.Fetch(context.Background(), "inputfolder/d.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-d", string(data))

	_, err = src.Fetch(context.Background(), "inputfolder/missing.pdf")
	assert.Error(t, err)
}

func TestS3Sink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeS3()
	presigner := &fakePresigner{}
	sink := NewS3Sink(&S3API{Client: fake, Presigner: presigner, Uploader: &fakeUploader{s3: fake}},
		config.Location{Bucket: "fin", Prefix: "outputfolder/"})

	key := "individual_jsons/a_20240101_000000.json"
	require.NoError(t, sink.Put(ctx, key, []byte(`{}`), "application/json"))
	_, ok := fake.objects["outputfolder/"+key]
	assert.True(t, ok)

	got, err := sink.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	objs, err := sink.List(ctx, IndividualDir+"/")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, key, objs[0].Key)

	link, err := sink.Link(ctx, key, 24*time.Hour)
	require.NoError(t, err)
	assert.Contains(t, link, "outputfolder/"+key)
	assert.Equal(t, 24*time.Hour, presigner.expires)

	require.NoError(t, sink.Delete(ctx, key))
	assert.Equal(t, []string{"outputfolder/" + key}, fake.deleted)
}
