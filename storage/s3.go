package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/attestia/agent-trust-registry/interfaces"
)

// S3Backend stores evidence in Amazon S3 or a compatible object store. With
// credentials it has write access; without, it is read-only against public
// buckets.
type S3Backend struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucketName     string
	prefix         string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Backend creates an S3 evidence backend. accessKey and secretKey are
// optional; without them Store fails and Fetch relies on public read access.
func NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Backend, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	baseCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	backend := &S3Backend{
		client:      s3.New(baseSess),
		bucketName:  bucketName,
		prefix:      strings.Trim(prefix, "/"),
		log:         log,
		locationURI: uri,
	}

	if accessKey != "" && secretKey != "" {
		writeCfg := baseCfg
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(&writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create authenticated S3 session: %w", err)
		}

		backend.writeClient = s3.New(writeSess)
		backend.hasWriteAccess = true
	}

	return backend, nil
}

// Fetch retrieves evidence by ID and type. Returns ErrEvidenceNotFound for a
// missing object.
func (b *S3Backend) Fetch(ctx context.Context, id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) ([]byte, error) {
	key := b.objectKey(id, evidenceType)

	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && (aerr.Code() == s3.ErrCodeNoSuchKey || aerr.Code() == "NotFound") {
			return nil, interfaces.ErrEvidenceNotFound
		}
		return nil, fmt.Errorf("failed to fetch evidence from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object body: %w", err)
	}

	b.log.Debug("Fetched evidence from S3",
		slog.String("key", key),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves evidence and returns its content-derived ID. Requires write
// credentials.
func (b *S3Backend) Store(ctx context.Context, data []byte, evidenceType interfaces.EvidenceType) (interfaces.EvidenceID, error) {
	id := interfaces.ComputeEvidenceID(data)

	if !b.hasWriteAccess {
		return id, fmt.Errorf("S3 backend %s has no write credentials", b.bucketName)
	}

	key := b.objectKey(id, evidenceType)
	_, err := b.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return id, fmt.Errorf("failed to store evidence in S3: %w", err)
	}

	b.log.Debug("Stored evidence in S3",
		slog.String("key", key),
		slog.String("evidenceID", id.String()))

	return id, nil
}

// Available checks bucket accessibility with a HEAD request.
func (b *S3Backend) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := b.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.bucketName),
	})
	if err != nil {
		b.log.Debug("S3 backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *S3Backend) Name() string {
	return fmt.Sprintf("s3-%s", b.bucketName)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *S3Backend) LocationURI() string {
	return b.locationURI
}

func (b *S3Backend) objectKey(id interfaces.EvidenceID, evidenceType interfaces.EvidenceType) string {
	return path.Join(b.prefix, evidenceType.String(), id.String())
}
