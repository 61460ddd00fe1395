package gcsuploader

import (
	"context"
)

// StorageService provides an interface for backup file storage.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadBackup writes backup text to the given storage URI.
	UploadBackup(ctx context.Context, gcsURI string, data []byte) error

	// FetchFromGCS downloads file bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage.
type GCSStorageService struct{}

// NewGCSStorageService creates a new instance of GCSStorageService.
func NewGCSStorageService() *GCSStorageService {
	return &GCSStorageService{}
}

// UploadBackup delegates to the existing UploadBackup function.
func (s *GCSStorageService) UploadBackup(ctx context.Context, gcsURI string, data []byte) error {
	return UploadBackup(ctx, gcsURI, data)
}

// FetchFromGCS delegates to the existing FetchFromGCS function.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, gcsURI)
}
