package source

import (
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/samber/lo"

	apperrors "upload-ai/internal/app/errors"
	"upload-ai/internal/app/model"
)

// SupportedContainers lists the video MIME types accepted for local uploads.
var SupportedContainers = []string{
	"video/mp4",
	"video/quicktime",
	"video/webm",
	"video/x-matroska",
	"video/x-msvideo",
	"video/mpeg",
	"video/3gpp",
	"video/x-flv",
	"video/ogg",
}

const defaultFilename = "video.mp4"

// Input is what a caller hands in: either Data (with MimeType and Filename) or URL.
type Input struct {
	Data     []byte
	MimeType string
	Filename string
	URL      string
}

// InvalidSourceError reports input the user has to correct. It is never retryable.
type InvalidSourceError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidSourceError) Error() string {
	if e.Field == "" {
		return "invalid source: " + e.Reason
	}
	return fmt.Sprintf("invalid source %s: %s", e.Field, e.Reason)
}

func (e *InvalidSourceError) Unwrap() error {
	return e.Err
}

// Resolve turns raw input into a VideoSource. It performs no I/O.
func Resolve(in Input) (model.VideoSource, error) {
	hasData := len(in.Data) > 0
	hasURL := strings.TrimSpace(in.URL) != ""

	switch {
	case hasData && hasURL:
		return model.VideoSource{}, &InvalidSourceError{Reason: "provide either a file or a url, not both"}
	case hasURL:
		return resolveURL(in.URL)
	case hasData:
		return resolveLocal(in)
	default:
		return model.VideoSource{}, &InvalidSourceError{
			Reason: "a video file or a url is required",
			Err:    apperrors.RequiredField("source"),
		}
	}
}

func resolveLocal(in Input) (model.VideoSource, error) {
	mimeType, err := normalizeMimeType(in.MimeType)
	if err != nil {
		return model.VideoSource{}, &InvalidSourceError{
			Field:  "mime type",
			Reason: fmt.Sprintf("cannot parse %q", in.MimeType),
			Err:    err,
		}
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType, _ = normalizeMimeType(mimetype.Detect(in.Data).String())
	}
	if !IsSupportedContainer(mimeType) {
		return model.VideoSource{}, &InvalidSourceError{
			Field:  "mime type",
			Reason: fmt.Sprintf("%q is not a supported video container", mimeType),
			Err:    apperrors.InvalidField("mime type", "not a video container"),
		}
	}

	filename := strings.TrimSpace(in.Filename)
	if filename == "" {
		filename = defaultFilename
	}
	return model.NewLocalFileSource(in.Data, mimeType, filename), nil
}

func resolveURL(raw string) (model.VideoSource, error) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return model.VideoSource{}, &InvalidSourceError{Field: "url", Reason: "not a well-formed url", Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return model.VideoSource{}, &InvalidSourceError{Field: "url", Reason: "scheme must be http or https"}
	}
	if parsed.Host == "" {
		return model.VideoSource{}, &InvalidSourceError{Field: "url", Reason: "host is missing"}
	}
	return model.NewRemoteReferenceSource(parsed.String()), nil
}

// IsSupportedContainer reports whether mimeType names an accepted video container.
func IsSupportedContainer(mimeType string) bool {
	return lo.Contains(SupportedContainers, strings.ToLower(mimeType))
}

func normalizeMimeType(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return "", err
	}
	return strings.ToLower(mediaType), nil
}
