package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func TestS3Store_SaveAndLoad(t *testing.T) {
	t.Parallel()

	fake := newFakeObjects()
	s := &S3Store{client: fake, bucket: "medchat"}
	ctx := context.Background()

	_, err := s.Load(ctx, NameUsers)
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Save(ctx, NameUsers, []byte(`{"v":1}`)))
	assert.Contains(t, fake.objects, "medchat/users.json")

	got, err := s.Load(ctx, NameUsers)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(got))
	require.NoError(t, s.Close())
}

func TestS3Store_Errors(t *testing.T) {
	t.Parallel()

	fake := newFakeObjects()
	fake.putErr = errors.New("access denied")
	fake.getErr = errors.New("timeout")
	s := &S3Store{client: fake, bucket: "medchat"}

	require.Error(t, s.Save(context.Background(), NameUsers, []byte("x")))

	_, err := s.Load(context.Background(), NameUsers)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestNewS3Store_ConfiguresEndpointAndCredentials(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	var loadOpts awsconfig.LoadOptions
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		for _, fn := range optFns {
			require.NoError(t, fn(&loadOpts))
		}
		return aws.Config{Region: loadOpts.Region}, nil
	}

	var s3Opts s3.Options
	fake := newFakeObjects()
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		for _, fn := range optFns {
			fn(&s3Opts)
		}
		return fake
	}

	cfg := &config.Config{
		S3Bucket:       "chats",
		S3Region:       "eu-central-1",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3AccessKey:    "minio",
		S3SecretKey:    "minio123",
	}

	s, err := NewS3Store(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "chats", s.bucket)
	assert.Equal(t, "eu-central-1", loadOpts.Region)
	require.NotNil(t, loadOpts.Credentials)
	creds, err := loadOpts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minio", creds.AccessKeyID)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(s3Opts.BaseEndpoint))
	assert.True(t, s3Opts.UsePathStyle)
}

func TestNewS3Store_LoadConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no profile")
	}

	_, err := NewS3Store(context.Background(), &config.Config{})
	require.Error(t, err)
}
