package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestLogNotifier_HidesPayloadAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	ok := NewLogNotifier(log).Send(context.Background(), "a@x.com", KindEmailVerification, map[string]string{"code": "123456"})

	assert.True(t, ok)
	assert.Contains(t, buf.String(), "notification recorded")
	assert.NotContains(t, buf.String(), "123456")
}

func TestNotifierFunc(t *testing.T) {
	var got string
	n := NotifierFunc(func(ctx context.Context, address, kind string, payload map[string]string) bool {
		got = address + "/" + kind
		return false
	})

	assert.False(t, n.Send(context.Background(), "a@x.com", KindPasswordReset, nil))
	assert.Equal(t, "a@x.com/password_reset", got)
}

func TestS3Outbox_Send(t *testing.T) {
	p := &fakePutter{}
	o := newS3Outbox(p, "outbox-bucket", logging.NewDiscardLogger())
	o.now = func() time.Time { return time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC) }

	ok := o.Send(context.Background(), "a@x.com", KindPasswordReset, map[string]string{"code": "654321"})
	require.True(t, ok)

	require.NotNil(t, p.in)
	assert.Equal(t, "outbox-bucket", aws.ToString(p.in.Bucket))
	assert.Regexp(t, regexp.MustCompile(`^outbox/password_reset/2024-05-01/[0-9a-v]{20}\.json$`), aws.ToString(p.in.Key))
	assert.Equal(t, "application/json", aws.ToString(p.in.ContentType))

	var msg Message
	require.NoError(t, json.Unmarshal(p.body, &msg))
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, KindPasswordReset, msg.Kind)
	assert.Equal(t, "654321", msg.Payload["code"])
}

func TestS3Outbox_SendFailure(t *testing.T) {
	p := &fakePutter{err: errors.New("connection refused")}
	o := newS3Outbox(p, "b", logging.NewDiscardLogger())

	assert.False(t, o.Send(context.Background(), "a@x.com", KindEmailVerification, nil))
}

func TestNewS3Outbox_AppliesConfig(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{}, nil
	}

	var endpoint string
	var pathStyle bool
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		endpoint = aws.ToString(opts.BaseEndpoint)
		pathStyle = opts.UsePathStyle
		return &s3.Client{}
	}

	cfg := &config.Config{
		S3Region:       "eu-west-1",
		S3AccessKey:    "key",
		S3SecretKey:    "secret",
		S3Bucket:       "outbox",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
	}
	o, err := NewS3Outbox(context.Background(), cfg, logging.NewDiscardLogger())
	require.NoError(t, err)
	assert.Equal(t, "outbox", o.bucket)
	assert.Equal(t, "http://127.0.0.1:9000/", endpoint)
	assert.True(t, pathStyle)
}

func TestNewS3Outbox_ConfigError(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = origLoad })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}

	_, err := NewS3Outbox(context.Background(), &config.Config{}, logging.NewDiscardLogger())
	assert.ErrorContains(t, err, "bad profile")
}
