package beep

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	gobeep "github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/cadence/internal/domain"
)

// writeSilence writes a mono 16-bit WAV file of the given length.
func writeSilence(t *testing.T, dir string, length time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, "silence.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := gobeep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, gobeep.Silence(format.SampleRate.N(length)), format))
	return path
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("/a/b.mp3"))
	assert.True(t, IsSupported("/a/b.FLAC"))
	assert.True(t, IsSupported("b.wav"))
	assert.False(t, IsSupported("b.ogg"))
	assert.False(t, IsSupported("noext"))
}

func TestDecodeFile_Wav(t *testing.T) {
	path := writeSilence(t, t.TempDir(), 2*time.Second)

	streamer, format, err := decodeFile(path)
	require.NoError(t, err)
	defer streamer.Close()

	assert.Equal(t, gobeep.SampleRate(8000), format.SampleRate)
	assert.Equal(t, 2*time.Second, format.SampleRate.D(streamer.Len()))
}

func TestDecodeFile_Errors(t *testing.T) {
	_, _, err := decodeFile("")
	assert.ErrorIs(t, err, domain.ErrInvalidFilePath)

	_, _, err = decodeFile("/music/song.ogg")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, _, err = decodeFile(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	garbage := filepath.Join(t.TempDir(), "garbage.wav")
	require.NoError(t, os.WriteFile(garbage, []byte("not a wav file"), 0o644))
	_, _, err = decodeFile(garbage)
	var aerr *domain.AudioEngineError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "load", aerr.Op)
}

func TestEngine_RequiresInitialize(t *testing.T) {
	engine := NewEngine()
	assert.False(t, engine.IsInitialized())

	_, err := engine.Load("/music/song.mp3")
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
	assert.ErrorIs(t, engine.Play(1), domain.ErrNotInitialized)
	assert.ErrorIs(t, engine.Shutdown(), domain.ErrNotInitialized)
	assert.ErrorIs(t, engine.SetVolume(1, 2), domain.ErrInvalidVolume)
}

func TestVolumeFor(t *testing.T) {
	exp, silent := volumeFor(0)
	assert.True(t, silent)
	assert.Zero(t, exp)

	exp, silent = volumeFor(1)
	assert.False(t, silent)
	assert.Zero(t, exp)

	exp, _ = volumeFor(0.5)
	assert.InDelta(t, -1.0, exp, 1e-9)

	// the effect multiplies samples by Base^Volume
	for _, level := range []float64{0.1, 0.33, 0.8} {
		exp, _ := volumeFor(level)
		assert.InDelta(t, level, math.Pow(2, exp), 1e-9)
	}
}

func TestProbeDuration(t *testing.T) {
	path := writeSilence(t, t.TempDir(), 1500*time.Millisecond)

	d, err := ProbeDuration(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = ProbeDuration("/music/cover.jpg")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
