// Package metadata uploads token metadata and image to the hosted IPFS
// endpoint and returns the metadata URI the create instruction embeds.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/ninja0404/pump-launch-go/pkg/constants"
	"github.com/ninja0404/pump-launch-go/pkg/metrics"
	"github.com/ninja0404/pump-launch-go/pkg/types"
)

const defaultImageName = "image.png"

// TokenMetadata is the descriptive part of a launch.
type TokenMetadata struct {
	Name        string
	Symbol      string
	Description string
	Image       []byte
	// ImageName is the multipart filename; defaults to image.png.
	ImageName string
	Twitter   string
	Telegram  string
	Website   string
}

// Validate checks the fields the create instruction carries.
func (m TokenMetadata) Validate() error {
	if err := types.ValidateTokenFields(m.Name, m.Symbol, ""); err != nil {
		return err
	}
	if len(m.Image) == 0 {
		return types.NewValidationError("image", "must not be empty")
	}
	return nil
}

// Uploader posts metadata as multipart form data.
type Uploader struct {
	endpoint string
	client   *http.Client
	tries    uint
	interval time.Duration
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Uploader) { u.client = c }
}

// WithTries sets how many times a transport error or 5xx is attempted.
func WithTries(n uint) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.tries = n
		}
	}
}

// WithRetryInterval sets the first wait between attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(u *Uploader) {
		if d > 0 {
			u.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(u *Uploader) { u.log = log }
}

// WithMetrics records uploads into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(u *Uploader) { u.metrics = m }
}

// NewUploader targets endpoint, or the public pump.fun IPFS endpoint when empty.
func NewUploader(endpoint string, opts ...Option) *Uploader {
	if endpoint == "" {
		endpoint = constants.DefaultMetadataUploadURL
	}
	u := &Uploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		tries:    3,
		interval: 500 * time.Millisecond,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

type uploadResponse struct {
	MetadataURI string `json:"metadataUri"`
}

// Upload sends m and returns its metadata URI. Failures are *types.UploadError.
func (u *Uploader) Upload(ctx context.Context, m TokenMetadata) (string, error) {
	if err := m.Validate(); err != nil {
		return "", &types.UploadError{Err: err}
	}
	body, contentType, err := encodeForm(m)
	if err != nil {
		return "", &types.UploadError{Err: err}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.interval

	start := time.Now()
	uri, err := backoff.Retry(ctx, func() (string, error) {
		return u.post(ctx, body, contentType)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(u.tries),
		backoff.WithNotify(func(err error, next time.Duration) {
			u.log.Debug().Err(err).Dur("next", next).Msg("metadata upload failed, retrying")
		}),
	)
	u.metrics.ObserveUpload(err, time.Since(start))
	if err != nil {
		var uerr *types.UploadError
		if errors.As(err, &uerr) {
			return "", uerr
		}
		return "", &types.UploadError{Err: err}
	}
	u.log.Info().Str("uri", uri).Str("symbol", m.Symbol).Msg("metadata uploaded")
	return uri, nil
}

func (u *Uploader) post(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(&types.UploadError{Err: err})
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", backoff.Permanent(&types.UploadError{Err: err})
		}
		return "", &types.UploadError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &types.UploadError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		uerr := &types.UploadError{StatusCode: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", uerr
		}
		return "", backoff.Permanent(uerr)
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", backoff.Permanent(&types.UploadError{StatusCode: resp.StatusCode, Body: string(raw), Err: err})
	}
	if out.MetadataURI == "" {
		return "", backoff.Permanent(&types.UploadError{StatusCode: resp.StatusCode, Body: string(raw), Err: fmt.Errorf("response has no metadataUri")})
	}
	return out.MetadataURI, nil
}

func encodeForm(m TokenMetadata) ([]byte, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	name := m.ImageName
	if name == "" {
		name = defaultImageName
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(m.Image); err != nil {
		return nil, "", fmt.Errorf("write image: %w", err)
	}

	fields := []struct{ key, value string }{
		{"name", m.Name},
		{"symbol", m.Symbol},
		{"description", m.Description},
		{"twitter", m.Twitter},
		{"telegram", m.Telegram},
		{"website", m.Website},
		{"showName", "true"},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("write %s: %w", f.key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
