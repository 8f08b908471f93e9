package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	getOut *s3.GetObjectOutput
	getErr error
	getIn  *s3.GetObjectInput

	putOut  *s3.PutObjectOutput
	putErr  error
	putIn   *s3.PutObjectInput
	putBody []byte

	delErr error
	delIn  *s3.DeleteObjectInput

	pages   []*s3.ListObjectsV2Output
	listErr error
	listIns []*s3.ListObjectsV2Input
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getIn = in
	return f.getOut, f.getErr
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putIn = in
	if in.Body != nil {
		f.putBody, _ = io.ReadAll(in.Body)
	}
	return f.putOut, f.putErr
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.delIn = in
	return &s3.DeleteObjectOutput{}, f.delErr
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listIns = append(f.listIns, in)
	if f.listErr != nil {
		return nil, f.listErr
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func newFakeStore(f *fakeS3) *S3Store {
	return &S3Store{client: f, bucket: "sheets"}
}

func TestNewS3Store_AppliesConfig(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "auto", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "key-id", creds.AccessKeyID)
		assert.Equal(t, "key-secret", creds.SecretAccessKey)
		return aws.Config{}, nil
	}

	var opts s3.Options
	fake := &fakeS3{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		for _, fn := range optFns {
			fn(&opts)
		}
		return fake
	}

	st, err := NewS3Store(context.Background(), S3Config{
		Endpoint:     "http://127.0.0.1:9000",
		Region:       "auto",
		AccessKey:    "key-id",
		SecretKey:    "key-secret",
		Bucket:       "sheets",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "sheets", st.bucket)
	assert.Same(t, fake, st.client)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Store_LoadError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Store(context.Background(), S3Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load-fail")
}

func TestS3Store_Get(t *testing.T) {
	f := &fakeS3{getOut: &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader([]byte("blob"))),
		ETag: aws.String(`"abc"`),
	}}
	st := newFakeStore(f)

	obj, err := st.Get(context.Background(), "preciousdays/c1.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), obj.Body)
	assert.Equal(t, `"abc"`, obj.ETag)
	assert.Equal(t, "sheets", *f.getIn.Bucket)
	assert.Equal(t, "preciousdays/c1.json", *f.getIn.Key)
}

func TestS3Store_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "typed no such key", err: &types.NoSuchKey{}, want: common.ErrNotFound},
		{name: "generic not found", err: &smithy.GenericAPIError{Code: "NotFound"}, want: common.ErrNotFound},
		{name: "precondition", err: &smithy.GenericAPIError{Code: "PreconditionFailed"}, want: common.ErrVersionConflict},
		{name: "conditional conflict", err: &smithy.GenericAPIError{Code: "ConditionalRequestConflict"}, want: common.ErrVersionConflict},
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: common.ErrStorage},
		{name: "network", err: errors.New("dial tcp: refused"), want: common.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError("get", "k", tt.err)
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestS3Store_GetMissing(t *testing.T) {
	st := newFakeStore(&fakeS3{getErr: &types.NoSuchKey{}})

	_, err := st.Get(context.Background(), "preciousdays/nope.json")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestS3Store_PutConditional(t *testing.T) {
	f := &fakeS3{putOut: &s3.PutObjectOutput{ETag: aws.String(`"v2"`)}}
	st := newFakeStore(f)

	etag, err := st.Put(context.Background(), "preciousdays/index.json", []byte("[]"), PutOptions{
		ContentType: ContentTypeJSON,
		IfMatch:     `"v1"`,
	})
	require.NoError(t, err)
	assert.Equal(t, `"v2"`, etag)
	assert.Equal(t, `"v1"`, *f.putIn.IfMatch)
	assert.Nil(t, f.putIn.IfNoneMatch)
	assert.Equal(t, ContentTypeJSON, *f.putIn.ContentType)
	assert.Equal(t, []byte("[]"), f.putBody)

	f.putErr = &smithy.GenericAPIError{Code: "PreconditionFailed"}
	_, err = st.Put(context.Background(), "preciousdays/index.json", []byte("[]"), PutOptions{IfNoneMatch: "*"})
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	assert.Equal(t, "*", *f.putIn.IfNoneMatch)
}

func TestS3Store_DeleteIsIdempotent(t *testing.T) {
	f := &fakeS3{delErr: &smithy.GenericAPIError{Code: "NoSuchKey"}}
	st := newFakeStore(f)

	require.NoError(t, st.Delete(context.Background(), "c1.bin"))
	assert.Equal(t, "c1.bin", *f.delIn.Key)

	f.delErr = errors.New("throttled")
	assert.ErrorIs(t, st.Delete(context.Background(), "c1.bin"), common.ErrStorage)
}

func TestS3Store_ListPaginates(t *testing.T) {
	f := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents:              []types.Object{{Key: aws.String("a.bin")}, {Key: aws.String("preciousdays/c1.json")}},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("t1"),
		},
		{
			Contents:    []types.Object{{Key: aws.String("preciousdays/index.json")}},
			IsTruncated: aws.Bool(false),
		},
	}}
	st := newFakeStore(f)

	keys, err := st.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.bin", "preciousdays/c1.json", "preciousdays/index.json"}, keys)
	require.Len(t, f.listIns, 2)
	assert.Nil(t, f.listIns[0].Prefix)
	assert.Equal(t, "t1", *f.listIns[1].ContinuationToken)
}

func TestS3Store_ListError(t *testing.T) {
	st := newFakeStore(&fakeS3{listErr: errors.New("boom")})

	_, err := st.List(context.Background(), "preciousdays/")
	assert.ErrorIs(t, err, common.ErrStorage)
}
