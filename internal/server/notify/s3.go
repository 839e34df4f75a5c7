package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/accounts/internal/logging"
	"github.com/dmitrijs2005/accounts/internal/server/config"
	"github.com/rs/xid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Message is the outbox document a downstream mailer picks up.
type Message struct {
	ID        string            `json:"id"`
	To        string            `json:"to"`
	Kind      string            `json:"kind"`
	Payload   map[string]string `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
}

// S3Outbox stores each notification as a JSON object under
// outbox/<kind>/<date>/<id>.json. Send reports whether the upload succeeded.
type S3Outbox struct {
	client objectPutter
	bucket string
	log    logging.Logger
	now    func() time.Time
}

func NewS3Outbox(ctx context.Context, cfg *config.Config, log logging.Logger) (*S3Outbox, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Outbox(client, cfg.S3Bucket, log), nil
}

func newS3Outbox(client objectPutter, bucket string, log logging.Logger) *S3Outbox {
	return &S3Outbox{client: client, bucket: bucket, log: log, now: time.Now}
}

func (o *S3Outbox) Send(ctx context.Context, address, kind string, payload map[string]string) bool {
	msg := Message{
		ID:        xid.New().String(),
		To:        address,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: o.now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		o.log.Error(ctx, "encoding outbox message", "kind", kind, "error", err)
		return false
	}

	key := objectKey(msg)
	_, err = o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		o.log.Warn(ctx, "outbox upload failed", "kind", kind, "key", key, "error", err)
		return false
	}

	o.log.Info(ctx, "notification queued", "kind", kind, "key", key)
	return true
}

func objectKey(m Message) string {
	return fmt.Sprintf("outbox/%s/%s/%s.json", m.Kind, m.CreatedAt.Format("2006-01-02"), m.ID)
}
