package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

// MaxImageBytes bounds a single product image upload.
const MaxImageBytes = 5 << 20

// ErrNotConfigured is returned by a disabled store.
var ErrNotConfigured = errors.New("image storage is not configured")

// ImageStore stores product images and returns their public URL.
type ImageStore interface {
	PutProductImage(ctx context.Context, productID, filename string, body io.Reader) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store uploads images to a bucket with the s3 transfer manager.
type S3Store struct {
	up     uploader
	bucket string
	prefix string
}

// NewS3Store builds a store from the default AWS credential chain.
func NewS3Store(ctx context.Context, bucket, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return newS3Store(manager.NewUploader(client), bucket, prefix), nil
}

func newS3Store(up uploader, bucket, prefix string) *S3Store {
	return &S3Store{up: up, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// PutProductImage sniffs the content type, rejects anything that is not an
// image and uploads it under products/<productID>/.
func (s *S3Store) PutProductImage(ctx context.Context, productID, filename string, body io.Reader) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return "", apperr.Validation("image is empty")
		}
		return "", fmt.Errorf("read image: %w", err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperr.Validation("unsupported image type %s", contentType)
	}

	key := s.key(productID, filename)
	out, err := s.up.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        io.MultiReader(bytes.NewReader(head), body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return out.Location, nil
}

func (s *S3Store) key(productID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	key := path.Join("products", productID, uuid.NewString()+ext)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// Disabled is used when no bucket is configured.
type Disabled struct{}

func (Disabled) PutProductImage(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrNotConfigured
}
