package audio

import (
	"bytes"
	"errors"
	"io/ioutil"
	"math"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 100

// makeWav encodes seconds of 16 bit PCM where every sample holds its frame index.
func makeWav(t *testing.T, seconds, channels int) []byte {
	t.Helper()

	data := make([]int, seconds*testRate*channels)
	for i := range data {
		data[i] = i / channels
	}

	w := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(w, testRate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())

	out, err := ioutil.ReadAll(w.Reader())
	require.NoError(t, err)
	return out
}

func decode(t *testing.T, data []byte) *audio.IntBuffer {
	t.Helper()

	d := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, d.IsValidFile())
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	return buf
}

func TestSegmentExactRange(t *testing.T) {
	src := makeWav(t, 60, 1)

	out, err := Segment(bytes.NewReader(src), 10, 5)
	require.NoError(t, err)

	buf := decode(t, out)
	assert.Equal(t, testRate, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	require.Len(t, buf.Data, 5*testRate)
	assert.Equal(t, 10*testRate, buf.Data[0])
	assert.Equal(t, 15*testRate-1, buf.Data[len(buf.Data)-1])
}

func TestSegmentTruncatesToAvailableAudio(t *testing.T) {
	src := makeWav(t, 60, 1)

	out, err := Segment(bytes.NewReader(src), 58, 5)
	require.NoError(t, err)

	buf := decode(t, out)
	require.Len(t, buf.Data, 2*testRate)
	assert.Equal(t, 58*testRate, buf.Data[0])
	assert.Equal(t, 60*testRate-1, buf.Data[len(buf.Data)-1])
}

func TestSegmentStereoKeepsFramesAligned(t *testing.T) {
	src := makeWav(t, 20, 2)

	out, err := Segment(bytes.NewReader(src), 3, 2)
	require.NoError(t, err)

	buf := decode(t, out)
	assert.Equal(t, 2, buf.Format.NumChannels)
	require.Len(t, buf.Data, 2*testRate*2)
	assert.Equal(t, 3*testRate, buf.Data[0])
	assert.Equal(t, 3*testRate, buf.Data[1])
}

func TestSegmentEmpty(t *testing.T) {
	src := makeWav(t, 10, 1)

	for _, tc := range []struct{ start, duration int }{
		{10, 5},
		{30, 5},
		{0, 0},
		{-1, 5},
	} {
		_, err := Segment(bytes.NewReader(src), tc.start, tc.duration)
		assert.True(t, errors.Is(err, ErrEmptySegment), "start=%d duration=%d", tc.start, tc.duration)
	}
}

func TestSegmentHugeOffsets(t *testing.T) {
	src := makeWav(t, 60, 1)

	for _, tc := range []struct{ start, duration int }{
		{math.MaxInt64 / 100, 5},
		{math.MaxInt64 / testRate, math.MaxInt64 / testRate},
		{59, math.MaxInt64},
	} {
		var (
			out []byte
			err error
		)
		require.NotPanics(t, func() {
			out, err = Segment(bytes.NewReader(src), tc.start, tc.duration)
		}, "start=%d duration=%d", tc.start, tc.duration)

		if tc.start >= 60 {
			assert.True(t, errors.Is(err, ErrEmptySegment))
			continue
		}
		require.NoError(t, err)
		assert.Len(t, decode(t, out).Data, testRate)
	}
}

func TestSegmentSpansManyChunks(t *testing.T) {
	// at 44.1 kHz one chunk is well under a second, so the range crosses chunk boundaries
	const rate = 44100
	data := make([]int, 5*rate)
	for i := range data {
		data[i] = i % 30000
	}
	w := &writerseeker.WriterSeeker{}
	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	src, err := ioutil.ReadAll(w.Reader())
	require.NoError(t, err)

	out, err := Segment(bytes.NewReader(src), 2, 2)
	require.NoError(t, err)

	buf := decode(t, out)
	require.Len(t, buf.Data, 2*rate)
	assert.Equal(t, data[2*rate:4*rate], buf.Data)
}

func TestSegmentInvalidInput(t *testing.T) {
	_, err := Segment(bytes.NewReader([]byte("definitely not a wav")), 0, 5)
	assert.True(t, errors.Is(err, ErrInvalidWav))
}
