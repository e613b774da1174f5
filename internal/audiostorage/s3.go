package audiostorage

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// S3Storage keeps artifacts in an S3-compatible bucket via minio.
type S3Storage struct {
	client *minio.Client
	bucket string
}

func NewS3Storage(ctx context.Context, endpoint string, bucket string, accessKey string, secretKey string, useSSL bool) (*S3Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating s3 client")
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "checking bucket %s", bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, errors.Wrapf(err, "creating bucket %s", bucket)
		}
	}

	zap.S().Named("audio_storage").Infow("s3 storage initialized", "endpoint", endpoint, "bucket", bucket)
	return &S3Storage{client: client, bucket: bucket}, nil
}

func (s *S3Storage) Save(ctx context.Context, jobID string, data []byte) (string, error) {
	name := audioObjectName(jobID)
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "audio/wav"})
	if err != nil {
		return "", errors.Wrapf(err, "saving audio for job %s", jobID)
	}
	return "s3://" + s.bucket + "/" + name, nil
}

func (s *S3Storage) Fetch(ctx context.Context, jobID string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, audioObjectName(jobID), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching audio for job %s", jobID)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ErrAudioNotFound
		}
		return nil, errors.Wrapf(err, "reading audio for job %s", jobID)
	}
	return data, nil
}

func (s *S3Storage) Delete(ctx context.Context, jobID string) bool {
	err := s.client.RemoveObject(ctx, s.bucket, audioObjectName(jobID), minio.RemoveObjectOptions{})
	return err == nil
}

func (s *S3Storage) PurgeOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return deleted, obj.Err
		}
		if obj.LastModified.Before(cutoff) {
			if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
				zap.S().Named("audio_storage").Warnw("purge failed", "key", obj.Key, "error", err)
				continue
			}
			deleted++
		}
	}
	return deleted, nil
}

func (s *S3Storage) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{}) {
		if obj.Err != nil {
			return stats, obj.Err
		}
		stats.FileCount++
		stats.TotalBytes += obj.Size
	}
	return stats, nil
}
