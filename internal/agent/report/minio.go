// Package report persists the post-flight mission record to S3-compatible
// object storage.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/options"
)

// Report is the flight record uploaded after every mission.
type Report struct {
	DroneID   string           `json:"droneId"`
	StartedAt time.Time        `json:"startedAt"`
	EndedAt   time.Time        `json:"endedAt"`
	Result    mission.Result   `json:"result"`
	Snapshot  mission.Snapshot `json:"snapshot"`
}

// Uploader writes mission reports to a bucket.
type Uploader struct {
	log    log.Logger
	client *minio.Client
	bucket string
	region string
}

// NewUploader connects to the configured object store.
func NewUploader(opts *options.S3Options) (*Uploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &Uploader{
		log:    log.WithName("report"),
		client: client,
		bucket: opts.BucketName,
		region: opts.Region,
	}, nil
}

// Upload stores the report as {droneID}/{endedAt}.json, creating the bucket
// on first use.
func (u *Uploader) Upload(ctx context.Context, report Report) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", u.bucket, err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region}); err != nil {
			return fmt.Errorf("failed to create bucket %q: %w", u.bucket, err)
		}
		u.log.Info("Created report bucket", "bucket", u.bucket)
	}

	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s/%s.json", report.DroneID, report.EndedAt.UTC().Format("20060102-150405"))
	_, err = u.client.PutObject(ctx, u.bucket, name, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload report %q: %w", name, err)
	}

	u.log.Info("Mission report uploaded", "bucket", u.bucket, "object", name)
	return nil
}
