package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"careerai/internal/config"
	"careerai/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the part of *s3.Client the object store uses.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStore reads resume documents from an S3-compatible bucket (AWS,
// Cloudflare R2, MinIO). Every object under the prefix with a supported
// extension is one resume.
type ObjectStore struct {
	client s3API
	bucket string
	prefix string
	logger *errors.Logger
}

// NewObjectStore builds an S3 client from cfg. Static keys are used when
// set, otherwise the default AWS credential chain.
func NewObjectStore(ctx context.Context, cfg config.S3Config, logger *errors.Logger) (*ObjectStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newObjectStore(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newObjectStore(client s3API, bucket, prefix string, logger *errors.Logger) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// SaveResume uploads the resume text as a plain-text object.
func (o *ObjectStore) SaveResume(ctx context.Context, r *Resume) error {
	if err := prepare(r, time.Now()); err != nil {
		return err
	}
	key := path.Join(o.prefix, r.ID+".txt")
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(r.Text),
		ContentType: aws.String(MimeText),
		Metadata:    map[string]string{"name": r.Name, "source": r.Source},
	})
	if err != nil {
		return fmt.Errorf("upload resume %s: %w", key, err)
	}
	return nil
}

// ListResumes downloads and extracts every supported object. Objects that
// cannot be extracted are skipped with a warning.
func (o *ObjectStore) ListResumes(ctx context.Context) ([]Resume, error) {
	resumes := []Resume{}
	paginator := s3.NewListObjectsV2Paginator(o.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(o.bucket),
		Prefix: aws.String(o.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list bucket %s: %w", o.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			mime := MimeFromName(key)
			if mime == "" {
				continue
			}
			text, err := o.download(ctx, key, mime)
			if err != nil {
				o.logger.Warn("Skipping unreadable resume object", "key", key, "error", err.Error())
				continue
			}
			r := Resume{
				ID:     strings.TrimSuffix(path.Base(key), path.Ext(key)),
				Name:   path.Base(key),
				Source: "s3://" + o.bucket + "/" + key,
				Text:   text,
			}
			if obj.LastModified != nil {
				r.CreatedAt = *obj.LastModified
			}
			resumes = append(resumes, r)
		}
	}
	sort.SliceStable(resumes, func(i, j int) bool {
		return resumes[i].CreatedAt.Before(resumes[j].CreatedAt)
	})
	return resumes, nil
}

func (o *ObjectStore) download(ctx context.Context, key, mime string) (string, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", err
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, out.Body); err != nil {
		return "", err
	}
	return ExtractText(mime, buf.Bytes())
}

func (o *ObjectStore) ListResumeTexts(ctx context.Context) ([]string, error) {
	resumes, err := o.ListResumes(ctx)
	if err != nil {
		return nil, err
	}
	return texts(resumes), nil
}

func (o *ObjectStore) Close() error { return nil }
