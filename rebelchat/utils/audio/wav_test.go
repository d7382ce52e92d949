package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func TestEncodeWAVHeader(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1234}
	out := EncodeWAV(samples, 16000, 1)

	if len(out) != 44+2*len(samples) {
		t.Fatalf("expected %d bytes, got %d", 44+2*len(samples), len(out))
	}
	le := binary.LittleEndian
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"riff tag", string(out[0:4]), "RIFF"},
		{"riff size", le.Uint32(out[4:8]), uint32(36 + 2*len(samples))},
		{"wave tag", string(out[8:12]), "WAVE"},
		{"fmt tag", string(out[12:16]), "fmt "},
		{"fmt size", le.Uint32(out[16:20]), uint32(16)},
		{"audio format", le.Uint16(out[20:22]), uint16(1)},
		{"channels", le.Uint16(out[22:24]), uint16(1)},
		{"sample rate", le.Uint32(out[24:28]), uint32(16000)},
		{"byte rate", le.Uint32(out[28:32]), uint32(32000)},
		{"block align", le.Uint16(out[32:34]), uint16(2)},
		{"bits per sample", le.Uint16(out[34:36]), uint16(16)},
		{"data tag", string(out[36:40]), "data"},
		{"data size", le.Uint32(out[40:44]), uint32(2 * len(samples))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
	for i, s := range samples {
		if got := int16(le.Uint16(out[44+2*i:])); got != s {
			t.Errorf("sample %d: got %d, want %d", i, got, s)
		}
	}
}

func TestEncodeWAVStereoHeader(t *testing.T) {
	out := EncodeWAV(make([]int16, 8), 44100, 2)
	le := binary.LittleEndian
	if le.Uint16(out[22:24]) != 2 {
		t.Errorf("expected 2 channels")
	}
	if le.Uint32(out[28:32]) != 44100*2*2 {
		t.Errorf("unexpected byte rate %d", le.Uint32(out[28:32]))
	}
	if le.Uint16(out[32:34]) != 4 {
		t.Errorf("unexpected block align %d", le.Uint16(out[32:34]))
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	out := EncodeWAV(nil, 16000, 1)
	if len(out) != 44 {
		t.Fatalf("expected bare header, got %d bytes", len(out))
	}
	if binary.LittleEndian.Uint32(out[40:44]) != 0 {
		t.Errorf("expected empty data chunk")
	}
}

func TestFloatToPCM16ClampsAndTruncates(t *testing.T) {
	in := []float32{0, 1, -1, 2, -3, 0.5, -0.5}
	want := []int16{0, 32767, -32767, 32767, -32767, 16383, -16383}
	got := FloatToPCM16(in)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d (%v): got %d, want %d", i, in[i], got[i], want[i])
		}
	}
}

func TestRoundTripThroughStandardDecoder(t *testing.T) {
	in := make([]float32, 1600)
	for i := range in {
		in[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	pcm := FloatToPCM16(in)
	encoded := EncodeWAV(pcm, 16000, 1)

	d := wav.NewDecoder(bytes.NewReader(encoded))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if d.SampleRate != 16000 || d.NumChans != 1 || d.BitDepth != 16 {
		t.Fatalf("unexpected format rate=%d chans=%d depth=%d", d.SampleRate, d.NumChans, d.BitDepth)
	}
	if len(buf.Data) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(buf.Data))
	}
	for i, v := range buf.Data {
		want := float64(in[i]) * 0x7fff
		if math.Abs(float64(v)-want) > 1 {
			t.Fatalf("sample %d: decoded %d, expected within 1 LSB of %.2f", i, v, want)
		}
	}
}

func TestFirstChannel(t *testing.T) {
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 2, SampleRate: 16000},
		Data:   []float32{0.1, 0.9, 0.2, 0.8, 0.3, 0.7},
	}
	got := FirstChannel(buf)
	want := []float32{0.1, 0.2, 0.3}
	if len(got) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 0, -1}
	if got := Resample(in, 16000, 16000); len(got) != 4 {
		t.Errorf("identity resample changed length to %d", len(got))
	}
	up := Resample(in, 8000, 16000)
	if len(up) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(up))
	}
	if up[1] != 0.5 {
		t.Errorf("expected interpolated 0.5, got %v", up[1])
	}
	down := Resample(in, 32000, 16000)
	if len(down) != 2 || down[0] != 0 || down[1] != 0 {
		t.Errorf("unexpected downsample %v", down)
	}
}

func TestTranscodeRejectsMissingFormat(t *testing.T) {
	if _, err := Transcode(&goaudio.Float32Buffer{Data: []float32{0}}); !errors.Is(err, ErrEmptyFormat) {
		t.Errorf("expected ErrEmptyFormat, got %v", err)
	}
}

func TestToLexPCMFromStereoWAV(t *testing.T) {
	// 8 kHz stereo, left channel constant, right channel silent
	frames := 800
	stereo := make([]int16, frames*2)
	for i := 0; i < frames; i++ {
		stereo[2*i] = 16384
	}
	src := EncodeWAV(stereo, 8000, 2)

	out, err := ToLexPCM("audio/wav", src, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	le := binary.LittleEndian
	if le.Uint16(out[22:24]) != 1 || le.Uint32(out[24:28]) != LexSampleRate {
		t.Fatalf("expected 16 kHz mono output")
	}
	n := int(le.Uint32(out[40:44])) / 2
	if n != frames*2 {
		t.Fatalf("expected %d samples after upsampling, got %d", frames*2, n)
	}
	first := int16(le.Uint16(out[44:46]))
	if first < 16380 || first > 16384 {
		t.Errorf("expected left channel level preserved, got %d", first)
	}
}

func TestToLexPCMFromFloat32(t *testing.T) {
	raw := make([]byte, 4*160)
	for i := 0; i < 160; i++ {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(0.25))
	}
	out, err := ToLexPCM("audio/x-float32le", raw, 16000, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 44+160*2 {
		t.Errorf("unexpected length %d", len(out))
	}
}

func TestToLexPCMUnsupported(t *testing.T) {
	_, err := ToLexPCM("audio/webm;codecs=opus", []byte{1, 2, 3}, 0, 0)
	if !errors.Is(err, ErrUnsupportedAudio) {
		t.Errorf("expected ErrUnsupportedAudio, got %v", err)
	}
}

func TestToLexPCMInvalidWAV(t *testing.T) {
	_, err := ToLexPCM("audio/wav", []byte("definitely not riff"), 0, 0)
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("expected ErrInvalidWAV, got %v", err)
	}
}

func TestToLexPCMRejectsOutOfRangeRates(t *testing.T) {
	raw := make([]byte, 4000)
	for _, rate := range []int{0, 1, 7999, MaxSampleRate + 1} {
		if _, err := ToLexPCM(ContentTypeFloat32LE, raw, rate, 1); !errors.Is(err, ErrEmptyFormat) {
			t.Errorf("rate %d: expected ErrEmptyFormat, got %v", rate, err)
		}
	}

	tiny := EncodeWAV(make([]int16, 1000), 1, 1)
	if _, err := ToLexPCM(ContentTypeWAV, tiny, 0, 0); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("1 Hz wav: expected ErrInvalidWAV, got %v", err)
	}
}

func TestTranscodeRejectsOverlongUtterance(t *testing.T) {
	rate := MinSampleRate
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:   make([]float32, rate*int(MaxDuration.Seconds()+1)),
	}
	if _, err := Transcode(buf); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}
