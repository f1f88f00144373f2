package domain

import "context"

// Backend fetches video metadata and produces transcoded audio.
// Implementations wrap an external downloader; failures are reported as *BackendError.
type Backend interface {
	// FetchTitle returns the human-readable title of the video at url
	FetchTitle(ctx context.Context, url string) (string, error)

	// DownloadAndTranscode retrieves the audio of url and writes it as configured by opts
	DownloadAndTranscode(ctx context.Context, url string, opts ExtractionOptions) error
}
