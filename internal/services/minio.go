package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ReceiptStore : justificatifs de paiement dans MinIO. L'identifiant rendu
// (nom d'objet) est opaque pour le reste de l'application.
type ReceiptStore struct {
	Client *minio.Client
	Bucket string
}

func NewReceiptStore(client *minio.Client, bucket string) *ReceiptStore {
	return &ReceiptStore{Client: client, Bucket: bucket}
}

func (s *ReceiptStore) Store(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if s.Client == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectName := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	_, err := s.Client.PutObject(ctx, s.Bucket, objectName, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  contentType,
			UserMetadata: map[string]string{"original-filename": filename},
		})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (s *ReceiptStore) Fetch(ctx context.Context, fileID string) ([]byte, string, error) {
	if s.Client == nil {
		return nil, "", fmt.Errorf("MinIO non initialisé")
	}
	obj, err := s.Client.GetObject(ctx, s.Bucket, fileID, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}
	defer obj.Close()

	// Stat valide l'existence avant de lire le flux.
	info, err := obj.Stat()
	if err != nil {
		return nil, "", err
	}
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, "", err
	}
	return data, info.ContentType, nil
}

func (s *ReceiptStore) Delete(ctx context.Context, fileID string) error {
	if s.Client == nil {
		return fmt.Errorf("MinIO non initialisé")
	}
	return s.Client.RemoveObject(ctx, s.Bucket, fileID, minio.RemoveObjectOptions{})
}
