package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/wolfman30/nutribot/pkg/logging"
)

const defaultUploadTimeout = 15 * time.Second

// DriveFilesAPI creates a file and returns its id.
type DriveFilesAPI interface {
	Create(ctx context.Context, name, folderID, mimeType string, data []byte) (string, error)
}

type driveService struct {
	svc *drive.Service
}

// NewDriveFilesAPI builds a Drive client authenticated by ts.
func NewDriveFilesAPI(ctx context.Context, ts oauth2.TokenSource) (DriveFilesAPI, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("storage: create drive service: %w", err)
	}
	return &driveService{svc: svc}, nil
}

func (d *driveService) Create(ctx context.Context, name, folderID, mimeType string, data []byte) (string, error) {
	meta := &drive.File{Name: name}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}
	file, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return file.Id, nil
}

// DriveStore uploads photos into a Drive folder.
type DriveStore struct {
	files    DriveFilesAPI
	folderID string
	timeout  time.Duration
	logger   *logging.Logger
}

func NewDriveStore(files DriveFilesAPI, folderID string, timeout time.Duration, logger *logging.Logger) *DriveStore {
	if files == nil {
		panic("storage: drive files api cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	return &DriveStore{files: files, folderID: folderID, timeout: timeout, logger: logger}
}

func (s *DriveStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.files.Create(ctx, name, s.folderID, "image/jpeg", data)
	if err != nil {
		return "", fmt.Errorf("storage: drive upload %s: %w", name, err)
	}
	if id == "" {
		return "", fmt.Errorf("storage: drive upload %s returned no file id", name)
	}
	s.logger.Info("image uploaded to drive", "file_id", id, "name", name, "bytes", len(data))
	return DriveViewURL(id), nil
}

func DriveViewURL(fileID string) string {
	return "https://drive.google.com/uc?id=" + fileID
}
