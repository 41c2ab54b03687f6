package audiopipe

import (
	"log/slog"
)

// Pipeline audio format. Wake word models and the hub's audio subscription
// both expect this fixed format.
const (
	SampleRate = 16000
	Channels   = 1

	// chunkBytes is 1024 samples of s16le mono, 64 ms of audio.
	chunkBytes = 2048
)

// Normalizer converts raw capture PCM into pipeline-format chunks and pushes
// them onto a queue. It accepts arbitrary write boundaries: partial sample
// frames are carried over to the next write, and output is re-chunked to the
// fixed pipeline chunk size.
//
// It implements io.Writer so a capture process's stdout can be copied into it
// directly. Not safe for concurrent use; there is one capture stream.
type Normalizer struct {
	queue       *Queue
	srcRate     int
	srcChannels int

	raw     []byte // bytes not yet forming a whole sample frame
	pending []byte // normalized bytes not yet forming a whole chunk

	warnedConvert bool
}

// NewNormalizer creates a Normalizer feeding q from a capture stream in the
// given source format. Source rates below the pipeline rate are upsampled;
// stereo sources are downmixed before resampling.
func NewNormalizer(q *Queue, srcRate, srcChannels int) *Normalizer {
	return &Normalizer{queue: q, srcRate: srcRate, srcChannels: srcChannels}
}

// Write consumes raw PCM from the capture stream. It never fails; conversion
// problems surface as log warnings and dropped bytes.
func (n *Normalizer) Write(pcm []byte) (int, error) {
	n.raw = append(n.raw, pcm...)

	frameBytes := 2 * n.srcChannels
	usable := len(n.raw) - len(n.raw)%frameBytes
	if usable == 0 {
		return len(pcm), nil
	}
	seg := n.raw[:usable]
	n.raw = append(n.raw[:0:0], n.raw[usable:]...)

	if n.srcChannels == 2 {
		seg = downmixStereo(seg)
	}
	if n.srcRate != SampleRate {
		if !n.warnedConvert {
			n.warnedConvert = true
			slog.Info("resampling capture audio", "from_hz", n.srcRate, "to_hz", SampleRate)
		}
		seg = resampleMono(seg, n.srcRate, SampleRate)
	}

	n.pending = append(n.pending, seg...)
	for len(n.pending) >= chunkBytes {
		chunk := make(Chunk, chunkBytes)
		copy(chunk, n.pending)
		n.pending = n.pending[chunkBytes:]
		n.queue.Push(chunk)
	}
	if len(n.pending) == 0 {
		n.pending = nil
	}
	return len(pcm), nil
}

// downmixStereo averages L+R per stereo frame (4 bytes) into mono output.
// Uses int32 arithmetic to prevent overflow and clamps to int16 range.
func downmixStereo(pcm []byte) []byte {
	frames := len(pcm) / 4
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		l := int32(int16(pcm[i*4]) | int16(pcm[i*4+1])<<8)
		r := int32(int16(pcm[i*4+2]) | int16(pcm[i*4+3])<<8)
		avg := (l + r) / 2

		if avg > 32767 {
			avg = 32767
		} else if avg < -32768 {
			avg = -32768
		}

		out[i*2] = byte(avg)
		out[i*2+1] = byte(avg >> 8)
	}
	return out
}

// resampleMono resamples s16le mono PCM from srcRate to dstRate using linear
// interpolation. If the rates match or the input is too short, the input is
// returned unchanged.
func resampleMono(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 {
		return pcm
	}
	if srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	srcSamples := len(pcm) / 2
	dstSamples := int(int64(srcSamples) * int64(dstRate) / int64(srcRate))
	if dstSamples == 0 {
		return nil
	}

	out := make([]byte, dstSamples*2)
	ratio := float64(srcRate) / float64(dstRate)

	for i := 0; i < dstSamples; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := srcPos - float64(srcIdx)

		s0 := int16(pcm[srcIdx*2]) | int16(pcm[srcIdx*2+1])<<8
		s1 := s0
		if srcIdx+1 < srcSamples {
			s1 = int16(pcm[(srcIdx+1)*2]) | int16(pcm[(srcIdx+1)*2+1])<<8
		}

		interpolated := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		out[i*2] = byte(interpolated)
		out[i*2+1] = byte(interpolated >> 8)
	}
	return out
}
