package beep

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	gobeep "github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// SupportedExtensions lists the file extensions the engine can decode, without the dot.
func SupportedExtensions() []string {
	return []string{"mp3", "wav", "flac"}
}

// IsSupported reports whether the file extension can be decoded.
func IsSupported(filePath string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	return slices.Contains(SupportedExtensions(), ext)
}

// decodeFile opens and decodes an audio file based on its extension.
// The returned streamer owns the file and closes it.
func decodeFile(filePath string) (gobeep.StreamSeekCloser, gobeep.Format, error) {
	if filePath == "" {
		return nil, gobeep.Format{}, domain.ErrInvalidFilePath
	}
	if !IsSupported(filePath) {
		return nil, gobeep.Format{}, domain.NewAudioEngineError("load", filePath, -1,
			"unsupported format "+filepath.Ext(filePath), domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gobeep.Format{}, domain.NewAudioEngineError("load", filePath, -1, "file not found", domain.ErrFileNotFound)
		}
		return nil, gobeep.Format{}, domain.NewAudioEngineError("load", filePath, -1, "open failed", err)
	}

	var (
		streamer gobeep.StreamSeekCloser
		format   gobeep.Format
	)
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, gobeep.Format{}, domain.NewAudioEngineError("load", filePath, -1, "decode failed", err)
	}
	return streamer, format, nil
}

// ProbeDuration decodes just enough of a file to report its length.
func ProbeDuration(filePath string) (time.Duration, error) {
	streamer, format, err := decodeFile(filePath)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
