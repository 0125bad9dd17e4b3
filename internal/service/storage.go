package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"foodgram/config"
)

var ErrInvalidImage = errors.New("invalid image payload")

// ImageStore persists uploaded images and resolves their public URLs.
type ImageStore interface {
	// Save writes the image and returns its storage path.
	Save(ctx context.Context, dir string, data []byte, ext string) (string, error)
	// Delete removes a stored image. Callers treat failures as
	// best-effort cleanup.
	Delete(ctx context.Context, path string) error
	// URL resolves a storage path to a public URL.
	URL(path string) string
}

// DecodeBase64Image parses a `data:image/...;base64,` payload and returns
// the raw bytes plus a file extension.
func DecodeBase64Image(payload string) ([]byte, string, error) {
	if payload == "" {
		return nil, "", ErrInvalidImage
	}

	ext := "png"
	raw := payload
	if strings.HasPrefix(payload, "data:") {
		head, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, "", ErrInvalidImage
		}
		raw = rest
		mime, _, _ := strings.Cut(strings.TrimPrefix(head, "data:"), ";")
		if sub, found := strings.CutPrefix(mime, "image/"); found && sub != "" {
			ext = sub
		}
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(data) == 0 {
		return nil, "", ErrInvalidImage
	}
	return data, ext, nil
}

// LocalStore keeps images on the local filesystem under a media root and
// serves them from {baseURL}/media/.
type LocalStore struct {
	Root    string
	BaseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Save(_ context.Context, dir string, data []byte, ext string) (string, error) {
	name := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	rel := filepath.ToSlash(filepath.Join(dir, name))
	full := filepath.Join(s.Root, dir, name)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

func (s *LocalStore) Delete(_ context.Context, path string) error {
	return os.Remove(filepath.Join(s.Root, filepath.FromSlash(path)))
}

func (s *LocalStore) URL(path string) string {
	if path == "" {
		return ""
	}
	return s.BaseURL + "/media/" + path
}

// S3Store keeps images in an S3 bucket with public-read objects.
type S3Store struct {
	cfg *config.S3Config
}

func NewS3Store(cfg *config.S3Config) *S3Store {
	return &S3Store{cfg: cfg}
}

func (s *S3Store) Save(ctx context.Context, dir string, data []byte, ext string) (string, error) {
	key := fmt.Sprintf("%s/%s.%s", dir, uuid.New().String(), ext)
	_, err := s.cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.cfg.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.BucketName),
		Key:    aws.String(path),
	})
	return err
}

func (s *S3Store) URL(path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.cfg.BucketName, path)
}
