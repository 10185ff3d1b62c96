package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// s3Concurrency bounds parallel object reads and writes.
const s3Concurrency = 8

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store keeps one JSON object per (user, date) at
// <prefix>/<user>/<date>.json.
type S3Store struct {
	client   S3API
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

var _ salat.RemoteStore = (*S3Store)(nil)

// NewS3Store creates a store over client.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

// NewS3StoreFromConfig loads AWS configuration and builds the client.
// Static credentials and a custom endpoint are used when configured.
func NewS3StoreFromConfig(ctx context.Context, cfg config.RemoteConfig) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func (s *S3Store) userPrefix(userID string) string {
	if s.prefix == "" {
		return userID + "/"
	}
	return s.prefix + "/" + userID + "/"
}

func (s *S3Store) objectKey(userID string, date salat.Date) string {
	return s.userPrefix(userID) + date.String() + ".json"
}

// dateFromKey extracts the date from an object key, or false for foreign keys.
func dateFromKey(key string) (salat.Date, bool) {
	name, ok := strings.CutSuffix(path.Base(key), ".json")
	if !ok {
		return salat.Date{}, false
	}
	date, err := salat.ParseDate(name)
	if err != nil {
		return salat.Date{}, false
	}
	return date, true
}

func (s *S3Store) Select(ctx context.Context, userID string, from, to salat.Date) ([]salat.DayRecord, error) {
	var keys []string
	pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.userPrefix(userID)),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if date, ok := dateFromKey(key); ok && inRange(date, from, to) {
				keys = append(keys, key)
			}
		}
	}

	var mu sync.Mutex
	out := make([]salat.DayRecord, 0, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s3Concurrency)
	for _, key := range keys {
		g.Go(func() error {
			rec, err := s.get(gctx, key)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, rec)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	salat.SortRecords(out)
	return out, nil
}

func (s *S3Store) get(ctx context.Context, key string) (salat.DayRecord, error) {
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return salat.DayRecord{}, fmt.Errorf("getting %s: %w", key, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return salat.DayRecord{}, fmt.Errorf("reading %s: %w", key, err)
	}
	var rec salat.DayRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return salat.DayRecord{}, fmt.Errorf("decoding %s: %w", key, err)
	}
	return rec, nil
}

func (s *S3Store) Upsert(ctx context.Context, userID string, records []salat.DayRecord) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s3Concurrency)
	for _, rec := range records {
		g.Go(func() error {
			data, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", rec.Date, err)
			}
			_, err = s.uploader.Upload(gctx, &s3.PutObjectInput{
				Bucket:      aws.String(s.bucket),
				Key:         aws.String(s.objectKey(userID, rec.Date)),
				Body:        bytes.NewReader(data),
				ContentType: aws.String("application/json"),
			})
			if err != nil {
				return fmt.Errorf("uploading %s: %w", rec.Date, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// ValidateSetup checks that the bucket exists and is reachable.
func (s *S3Store) ValidateSetup(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	return nil
}
