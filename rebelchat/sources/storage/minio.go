package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"rebelchat/rebelchat/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOClient archives converted voice utterances so failed recognitions can
// be replayed against the bot later.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	bucket := cfg.MinIOBucket
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		},
	)
	if err != nil {
		return nil, err
	}
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.AWSRegion}); err != nil {
			return nil, err
		}
	}
	return &MinIOClient{client: client, bucket: bucket}, nil
}

// UtteranceKey builds the object key for one utterance of a session.
func UtteranceKey(sessionID string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, sessionID)
	if s == "" {
		s = "unknown"
	}
	return path.Join("utterances", s, uuid.NewString()+".wav")
}

// PutUtterance uploads a WAV and returns its key.
func (m *MinIOClient) PutUtterance(ctx context.Context, sessionID string, wav []byte) (string, error) {
	key := UtteranceKey(sessionID)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(wav), int64(len(wav)),
		minio.PutObjectOptions{ContentType: "audio/wav"})
	if err != nil {
		return "", fmt.Errorf("upload utterance: %w", err)
	}
	return key, nil
}
