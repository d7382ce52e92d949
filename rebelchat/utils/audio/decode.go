package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"mime"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var (
	ErrUnsupportedAudio = errors.New("audio: unsupported content type")
	ErrInvalidWAV       = errors.New("audio: invalid wav payload")
)

// Content types accepted from clients.
const (
	ContentTypeWAV       = "audio/wav"
	ContentTypeXWAV      = "audio/x-wav"
	ContentTypeWave      = "audio/wave"
	ContentTypeFloat32LE = "audio/x-float32le"
)

// DecodeWAV reads an integer PCM WAV of any rate and channel count into
// normalized float samples.
func DecodeWAV(data []byte) (*goaudio.Float32Buffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if d.NumChans == 0 || !ValidSampleRate(int(d.SampleRate)) {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrInvalidWAV, d.NumChans, d.SampleRate)
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: format %d is not integer PCM", ErrInvalidWAV, d.WavAudioFormat)
	}
	ib, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}

	depth := int(d.BitDepth)
	out := &goaudio.Float32Buffer{
		Format:         &goaudio.Format{NumChannels: int(d.NumChans), SampleRate: int(d.SampleRate)},
		Data:           make([]float32, len(ib.Data)),
		SourceBitDepth: depth,
	}
	if depth == 8 {
		for i, v := range ib.Data {
			out.Data[i] = float32(v-128) / 128
		}
		return out, nil
	}
	scale := float32(math.Pow(2, float64(depth-1)))
	for i, v := range ib.Data {
		out.Data[i] = float32(v) / scale
	}
	return out, nil
}

// DecodeFloat32LE wraps raw little-endian float32 samples, as produced by a
// browser's decoded audio buffer.
func DecodeFloat32LE(data []byte, sampleRate, channels int) (*goaudio.Float32Buffer, error) {
	if !ValidSampleRate(sampleRate) {
		return nil, fmt.Errorf("%w: sample rate %d", ErrEmptyFormat, sampleRate)
	}
	if channels <= 0 {
		channels = 1
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("audio: float32 payload length %d is not a multiple of 4", len(data))
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return &goaudio.Float32Buffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 32,
	}, nil
}

// ToLexPCM converts an uploaded utterance into a 16 kHz mono PCM WAV.
// sampleRate and channels only matter for raw float uploads.
func ToLexPCM(contentType string, body []byte, sampleRate, channels int) ([]byte, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.TrimSpace(strings.ToLower(contentType))
	}

	var buf *goaudio.Float32Buffer
	switch mt {
	case ContentTypeWAV, ContentTypeXWAV, ContentTypeWave:
		buf, err = DecodeWAV(body)
	case ContentTypeFloat32LE:
		buf, err = DecodeFloat32LE(body, sampleRate, channels)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAudio, contentType)
	}
	if err != nil {
		return nil, err
	}
	return Transcode(buf)
}
