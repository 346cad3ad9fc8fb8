package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"golang.org/x/oauth2"

	"github.com/wolfman30/nutribot/internal/auth"
	appconfig "github.com/wolfman30/nutribot/internal/config"
	"github.com/wolfman30/nutribot/internal/notify"
	"github.com/wolfman30/nutribot/internal/sheets"
	"github.com/wolfman30/nutribot/internal/storage"
	"github.com/wolfman30/nutribot/pkg/logging"
)

// BuildGoogleTokenSource returns nil when neither Sheets nor Drive is
// configured. Otherwise a credential problem is a startup error.
func BuildGoogleTokenSource(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (oauth2.TokenSource, error) {
	if !cfg.GoogleEnabled() {
		logger.Info("google collaborators disabled; spreadsheet logging and drive uploads are off")
		return nil, nil
	}
	ts, err := auth.GoogleTokenSource(ctx, cfg.GoogleTokenJSON, cfg.GoogleTokenFile)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: google credentials: %w", err)
	}
	logger.Info("google credentials loaded")
	return ts, nil
}

// BuildRecorder returns the spreadsheet logger, or sheets.Noop when no
// spreadsheet is configured.
func BuildRecorder(ctx context.Context, cfg *appconfig.Config, ts oauth2.TokenSource, logger *logging.Logger) (sheets.Recorder, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" || ts == nil {
		return sheets.Noop{}, nil
	}
	api, err := sheets.NewValuesAPI(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: sheets client: %w", err)
	}
	logger.Info("spreadsheet logging enabled", "spreadsheet_id", cfg.SpreadsheetID)
	return sheets.NewLogger(api, cfg.SpreadsheetID, cfg.CollaboratorTimeout, logger), nil
}

// BuildImageStore selects where meal photos are kept.
func BuildImageStore(ctx context.Context, cfg *appconfig.Config, ts oauth2.TokenSource, loadAWS AWSConfigLoader, logger *logging.Logger) (storage.ImageStore, error) {
	switch cfg.StorageBackend {
	case "drive":
		if strings.TrimSpace(cfg.DriveFolderID) == "" || ts == nil {
			logger.Info("drive folder not configured; meal photos are not stored")
			return storage.Noop{}, nil
		}
		files, err := storage.NewDriveFilesAPI(ctx, ts)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: drive client: %w", err)
		}
		logger.Info("drive image storage enabled", "folder_id", cfg.DriveFolderID)
		return storage.NewDriveStore(files, cfg.DriveFolderID, cfg.CollaboratorTimeout, logger), nil
	case "s3":
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: aws configuration loader is required for s3 storage")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			// LocalStack only serves path-style bucket addressing.
			o.UsePathStyle = cfg.AWSEndpointOverride != ""
		})
		store, err := storage.NewS3Store(client, storage.S3Config{
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			Region:        cfg.AWSRegion,
			PublicBaseURL: cfg.S3PublicBaseURL,
			Timeout:       cfg.CollaboratorTimeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		logger.Info("s3 image storage enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return store, nil
	default:
		return storage.Noop{}, nil
	}
}

// BuildFeedbackNotifier returns a notifier that is disabled (but safe to
// call) when no recipient or sender is configured.
func BuildFeedbackNotifier(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) *notify.FeedbackNotifier {
	if strings.TrimSpace(cfg.FeedbackEmailTo) == "" {
		return notify.NewFeedbackNotifier(nil, "", logger)
	}

	from := notify.From{Email: cfg.SendGridFromEmail, Name: cfg.SendGridFromName}
	var sender notify.EmailSender
	switch cfg.EmailProvider {
	case "ses":
		if loadAWS == nil {
			logger.Warn("ses email requested without aws configuration; feedback emails disabled")
			break
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			logger.Warn("failed to load aws config; feedback emails disabled", "error", err)
			break
		}
		if s := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), from, logger); s != nil {
			sender = s
		}
	case "stub":
		sender = notify.NewLogSender(logger)
	default:
		// A nil *SendGridSender must not become a non-nil EmailSender.
		if s := notify.NewSendGridSender(cfg.SendGridAPIKey, from, logger); s != nil {
			sender = s
		}
	}

	if sender == nil {
		logger.Warn("no email sender configured; feedback emails disabled", "provider", cfg.EmailProvider)
		return notify.NewFeedbackNotifier(nil, "", logger)
	}
	logger.Info("feedback emails enabled", "provider", cfg.EmailProvider)
	return notify.NewFeedbackNotifier(sender, cfg.FeedbackEmailTo, logger)
}
