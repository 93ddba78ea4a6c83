package audio

import (
	"errors"
	"io"
	"io/ioutil"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

var (
	ErrInvalidWav   = errors.New("not a valid wav file")
	ErrEmptySegment = errors.New("segment contains no audio")
)

// riff chunk sizes are 32 bit, no wav holds more frames than this
const maxFrames = int64(1) << 32

const chunkFrames = 4096

// Segment cuts [start, start+duration) seconds out of a PCM wav and re-encodes it as wav.
// The source is decoded in fixed size chunks, only the frames of the segment are kept.
// The end is truncated to the available audio.
func Segment(r io.ReadSeeker, start, duration int) ([]byte, error) {
	if start < 0 || duration <= 0 {
		return nil, ErrEmptySegment
	}

	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWav
	}

	rate := int64(decoder.SampleRate)
	chans := int64(decoder.NumChans)
	if rate == 0 || chans == 0 || decoder.BitDepth == 0 {
		return nil, ErrInvalidWav
	}

	// bound the seconds before converting to frames so the products cannot overflow
	limit := maxFrames/rate + 1
	if int64(start) >= limit {
		return nil, ErrEmptySegment
	}
	span := int64(duration)
	if span > limit {
		span = limit
	}
	end := int64(start) + span
	if end > limit {
		end = limit
	}
	from := int64(start) * rate * chans
	to := end * rate * chans

	format := &audio.Format{NumChannels: int(chans), SampleRate: int(rate)}
	chunk := &audio.IntBuffer{Format: format, Data: make([]int, chunkFrames*chans)}

	var out []int
	pos := int64(0)
	for pos < to {
		n, err := decoder.PCMBuffer(chunk)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, err
		}
		if n == 0 {
			break
		}

		lo, hi := pos, pos+int64(n)
		if lo < from {
			lo = from
		}
		if hi > to {
			hi = to
		}
		if lo < hi {
			out = append(out, chunk.Data[lo-pos:hi-pos]...)
		}
		pos += int64(n)

		if err != nil {
			break
		}
	}

	// samples are interleaved, drop a trailing partial frame
	out = out[:len(out)-len(out)%int(chans)]
	if len(out) == 0 {
		return nil, ErrEmptySegment
	}

	w := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(w, int(rate), int(decoder.BitDepth), int(chans), int(decoder.WavAudioFormat))

	if err := encoder.Write(&audio.IntBuffer{
		Format:         format,
		Data:           out,
		SourceBitDepth: int(decoder.BitDepth),
	}); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return ioutil.ReadAll(w.Reader())
}
