package slides

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/Gkemhcs/slidebox/internal/errors"
	"github.com/Gkemhcs/slidebox/internal/oauth"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// APIClient makes signed calls with a user's access credential.
type APIClient interface {
	AuthenticatedRequest(ctx context.Context, r oauth.Request) (*oauth.Response, error)
}

// SlidesService reads decks from the user's Dropbox app folder.
type SlidesService struct {
	client    APIClient
	endpoints Endpoints
	logger    *logrus.Logger
}

// NewSlidesService creates a new SlidesService.
func NewSlidesService(client APIClient, endpoints Endpoints, logger *logrus.Logger) *SlidesService {
	return &SlidesService{
		client:    client,
		endpoints: endpoints,
		logger:    logger,
	}
}

// ListSlides returns the entries of the app folder root.
func (s *SlidesService) ListSlides(ctx context.Context, credential oauth.AccessCredential) ([]Entry, error) {
	resp, err := s.client.AuthenticatedRequest(ctx, oauth.Request{
		URL:        s.endpoints.MetadataURL,
		Credential: credential,
	})
	if err != nil {
		return nil, err
	}

	var listing struct {
		Contents []Entry `json:"contents"`
	}
	if err := json.Unmarshal(resp.Body, &listing); err != nil {
		return nil, apperrors.NewProtocolError("metadata", resp.StatusCode, resp.Body, fmt.Errorf("decode listing: %w", err))
	}
	if listing.Contents == nil {
		listing.Contents = []Entry{}
	}
	return listing.Contents, nil
}

// FetchFile downloads path from the app folder. A non-200 provider status is
// not an error: it is returned in File.StatusCode for the caller to forward.
func (s *SlidesService) FetchFile(ctx context.Context, credential oauth.AccessCredential, path string) (*File, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	resp, err := s.client.AuthenticatedRequest(ctx, oauth.Request{
		URL:        s.endpoints.ContentURL + escapePath(path),
		Credential: credential,
		RawStatus:  true,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"path":        path,
			"status_code": resp.StatusCode,
		}).Warn("Provider refused file download")
		return &File{StatusCode: resp.StatusCode}, nil
	}
	return &File{
		StatusCode:  http.StatusOK,
		ContentType: mimeType(resp.Header),
		Body:        resp.Body,
	}, nil
}

// mimeType reads mime_type from the x-dropbox-metadata JSON header.
func mimeType(h http.Header) string {
	raw := h.Get("x-dropbox-metadata")
	if raw == "" {
		return defaultContentType
	}
	var meta struct {
		MimeType string `json:"mime_type"`
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil || meta.MimeType == "" {
		return defaultContentType
	}
	return meta.MimeType
}

// escapePath percent-encodes each segment, keeping the separators.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = oauth.PercentEncode(seg)
	}
	return strings.Join(segments, "/")
}
