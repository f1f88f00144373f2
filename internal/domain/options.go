package domain

import "path/filepath"

const (
	DefaultOutputDirectory    = "youtube_audio"
	DefaultAudioFormat        = "mp3"
	DefaultAudioQuality       = "192"
	DefaultOutputNameTemplate = "%(title)s.%(ext)s"
	DefaultConcurrency        = 3
)

// ExtractionOptions describes the audio the backend should produce.
// It is built once and shared read-only by every extraction in a batch.
type ExtractionOptions struct {
	OutputDirectory    string `json:"output_directory"`
	AudioFormat        string `json:"audio_format"`
	AudioQuality       string `json:"audio_quality"`
	OutputNameTemplate string `json:"output_name_template"`
}

// DefaultExtractionOptions returns options for 192 kbps MP3 files in youtube_audio
func DefaultExtractionOptions() ExtractionOptions {
	return ExtractionOptions{
		OutputDirectory:    DefaultOutputDirectory,
		AudioFormat:        DefaultAudioFormat,
		AudioQuality:       DefaultAudioQuality,
		OutputNameTemplate: DefaultOutputNameTemplate,
	}
}

// OutputTemplatePath joins the output directory and the name template
func (o ExtractionOptions) OutputTemplatePath() string {
	return filepath.Join(o.OutputDirectory, o.OutputNameTemplate)
}

// OutputPathFor returns where the audio for a video titled title ends up
func (o ExtractionOptions) OutputPathFor(title string) string {
	return filepath.Join(o.OutputDirectory, title+"."+o.AudioFormat)
}
