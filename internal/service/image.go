package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/config"
	"github.com/rs/zerolog/log"
)

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// S3PutObjectAPI is the part of the S3 client used for uploads.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads data-URL images to S3 and stores the object link.
type S3ImageStore struct {
	client    S3PutObjectAPI
	bucket    string
	publicURL string
}

func NewS3ImageStore(client S3PutObjectAPI, bucket, publicURL string) *S3ImageStore {
	return &S3ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// NewS3ImageStoreFromConfig wires the store to the configured bucket.
func NewS3ImageStoreFromConfig(cfg *config.S3Config) *S3ImageStore {
	return NewS3ImageStore(cfg.Client, cfg.BucketName, cfg.PublicURL)
}

// Store uploads image when it is a data URL. URLs and empty values are
// returned unchanged.
func (s *S3ImageStore) Store(ctx context.Context, image string) (string, error) {
	if !isDataURL(image) {
		return image, nil
	}

	contentType, data, err := decodeDataURL(image)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), imageExtensions[contentType])
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image to S3: %w", err)
	}

	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Uploaded recipe image")
	return s.publicURL + "/" + key, nil
}

// InlineImageStore keeps images on the recipe row. Data URLs are checked
// for a supported type and valid base64 before being stored verbatim.
type InlineImageStore struct{}

func (InlineImageStore) Store(_ context.Context, image string) (string, error) {
	if isDataURL(image) {
		if _, _, err := decodeDataURL(image); err != nil {
			return "", err
		}
	}
	return image, nil
}

func isDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// decodeDataURL parses "data:<type>;base64,<payload>".
func decodeDataURL(s string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, invalid("image", "malformed data URL")
	}

	contentType, encoding, _ := strings.Cut(header, ";")
	if encoding != "base64" {
		return "", nil, invalid("image", "data URL must be base64 encoded")
	}
	if _, ok := imageExtensions[contentType]; !ok {
		return "", nil, invalid("image", "unsupported image type %q", contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, invalid("image", "invalid base64 payload")
	}
	return contentType, data, nil
}
