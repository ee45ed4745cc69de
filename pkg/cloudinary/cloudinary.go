package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores uploaded exam scripts in Cloudinary so graders can pull
// page images from a CDN instead of the API node.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// UploadScript sends a script PDF to Cloudinary and returns a secure URL.
// The public ID embeds the session and file key so re-uploads of the same
// script stay distinguishable in the media library.
func (s *Service) UploadScript(ctx context.Context, sessionID, fileKey, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(s.folder, "/")
	if folder != "" {
		folder = fmt.Sprintf("%s/%s", folder, sessionID)
	} else {
		folder = sessionID
	}

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     buildPublicID(fileKey, name),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload script: %w", err)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Str("file_key", fileKey).
		Msg("script uploaded to cloudinary")

	return result.SecureURL, nil
}

func buildPublicID(fileKey, name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("script-%d", time.Now().Unix())
	}

	return fmt.Sprintf("%s-%s", fileKey, base)
}
