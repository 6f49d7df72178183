package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"counsel/counsel/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// RecordingStore archives uploaded counseling recordings in object
// storage so the raw audio survives the stateless summarize call.
type RecordingStore struct {
	client *minio.Client
	bucket string
}

// contentTypes maps upload extensions to the MIME types the
// transcription service accepts.
var contentTypes = map[string]string{
	".webm": "video/webm",
	".mp3":  "audio/mp3",
	".mp4":  "video/mp4",
	".mpeg": "audio/mpeg",
	".mpga": "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
}

func NewRecordingStore(cfg config.Config) (*RecordingStore, error) {
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: false,
		},
	)
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(context.Background(), cfg.MinIOBucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &RecordingStore{client: client, bucket: cfg.MinIOBucket}, nil
}

// SaveRecording stores the raw upload and returns its object key.
func (s *RecordingStore) SaveRecording(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".webm"
	}
	key := filepath.Join("recordings", time.Now().UTC().Format("2006/01/02"), uuid.New().String()+ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: ContentTypeFor(filename)})
	if err != nil {
		return "", err
	}
	return key, nil
}

// GetRecording fetches an archived recording by key.
func (s *RecordingStore) GetRecording(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentTypeFor resolves the MIME type of an uploaded recording from
// its filename, defaulting to webm.
func ContentTypeFor(filename string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "video/webm"
}
