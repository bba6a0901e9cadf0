package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bryanwahyu/fraudwatch/internal/domain/fraud"
)

// Store writes alert reports to an S3-compatible bucket.
type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// Report is the document stored per alert.
type Report struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Alert       fraud.Alert `json:"alert"`
}

// PutAlertReport implementasi ReportStore
func (s *Store) PutAlertReport(ctx context.Context, a fraud.Alert) (string, error) {
	body, err := reportBody(a, time.Now().UTC())
	if err != nil {
		return "", err
	}
	key := ObjectKey(a)

	_, err = s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put report %s: %w", key, err)
	}

	// URL publik (jika bucket public), kalau private harus generate presigned URL
	url := fmt.Sprintf("%s://%s/%s/%s", s.client.EndpointURL().Scheme, s.client.EndpointURL().Host, s.bucketName, key)
	return url, nil
}

// ObjectKey lays reports out by alert date: alerts/yyyy/mm/dd/<id>.json.
func ObjectKey(a fraud.Alert) string {
	ts := a.Timestamp.UTC()
	return fmt.Sprintf("alerts/%04d/%02d/%02d/%s.json", ts.Year(), int(ts.Month()), ts.Day(), a.ID)
}

func reportBody(a fraud.Alert, at time.Time) ([]byte, error) {
	// report_url is only known after the upload
	a.ReportURL = ""
	b, err := json.MarshalIndent(Report{GeneratedAt: at, Alert: a}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report %s: %w", a.ID, err)
	}
	return b, nil
}
