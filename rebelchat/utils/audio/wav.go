// Package audio turns recorded utterances into the 16 kHz mono 16-bit PCM
// WAV payload the Lex runtime accepts.
package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
)

const (
	// LexSampleRate is the rate Lex expects for linear PCM input.
	LexSampleRate = 16000
	// HeaderSize is the size of the canonical RIFF/WAVE header we emit.
	HeaderSize = 44

	// Accepted input rates. Anything outside would make resampling blow up
	// the buffer or is not real speech audio.
	MinSampleRate = 8000
	MaxSampleRate = 192000
	// MaxDuration caps one utterance.
	MaxDuration = 5 * time.Minute

	bitsPerSample = 16
)

var (
	ErrEmptyFormat = errors.New("audio: buffer has no usable format")
	ErrTooLong     = errors.New("audio: utterance is too long")
)

// maxOutputSamples is MaxDuration at the Lex rate.
const maxOutputSamples = int64(MaxDuration/time.Second) * LexSampleRate

// ValidSampleRate reports whether rate is inside [MinSampleRate, MaxSampleRate].
func ValidSampleRate(rate int) bool {
	return rate >= MinSampleRate && rate <= MaxSampleRate
}

// EncodeWAV serializes 16-bit samples behind a 44-byte RIFF/WAVE header.
// samples are interleaved when numChannels > 1.
func EncodeWAV(samples []int16, sampleRate, numChannels int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, HeaderSize+dataLen)
	le := binary.LittleEndian

	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], uint32(36+dataLen))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], 1) // linear PCM
	le.PutUint16(buf[22:24], uint16(numChannels))
	le.PutUint32(buf[24:28], uint32(sampleRate))
	le.PutUint32(buf[28:32], uint32(sampleRate*numChannels*2))
	le.PutUint16(buf[32:34], uint16(numChannels*2))
	le.PutUint16(buf[34:36], bitsPerSample)
	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], uint32(dataLen))

	off := HeaderSize
	for _, s := range samples {
		le.PutUint16(buf[off:off+2], uint16(s))
		off += 2
	}
	return buf
}

// FloatToPCM16 clamps every sample to [-1, 1] and scales it by 0x7fff,
// truncating toward zero.
func FloatToPCM16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		if math.IsNaN(v) {
			v = 0
		}
		out[i] = int16(v * 0x7fff)
	}
	return out
}

// FirstChannel picks channel 0 out of an interleaved buffer.
func FirstChannel(buf *goaudio.Float32Buffer) []float32 {
	if buf == nil || buf.Format == nil {
		return nil
	}
	n := buf.Format.NumChannels
	if n <= 1 {
		out := make([]float32, len(buf.Data))
		copy(out, buf.Data)
		return out
	}
	out := make([]float32, 0, len(buf.Data)/n)
	for i := 0; i+n <= len(buf.Data); i += n {
		out = append(out, buf.Data[i])
	}
	return out
}

// Resample converts samples from one rate to another with linear
// interpolation.
func Resample(samples []float32, from, to int) []float32 {
	if from == to || from <= 0 || to <= 0 || len(samples) == 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float32, outLen)
	ratio := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			out[i] = samples[last]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}

// Transcode reduces buf to the first channel at 16 kHz and returns it as a
// mono 16-bit WAV.
func Transcode(buf *goaudio.Float32Buffer) ([]byte, error) {
	if buf == nil || buf.Format == nil || !ValidSampleRate(buf.Format.SampleRate) {
		return nil, ErrEmptyFormat
	}
	mono := FirstChannel(buf)
	if int64(len(mono))*LexSampleRate/int64(buf.Format.SampleRate) > maxOutputSamples {
		return nil, ErrTooLong
	}
	mono = Resample(mono, buf.Format.SampleRate, LexSampleRate)
	return EncodeWAV(FloatToPCM16(mono), LexSampleRate, 1), nil
}
