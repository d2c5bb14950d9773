package audioio

import (
	"math"
	"time"
)

// Tone describes a beep pattern: Repeat beeps of Duration separated by Gap.
type Tone struct {
	Frequency float64       // Hz
	Duration  time.Duration // Length of one beep
	Repeat    int           // Number of beeps, at least 1
	Gap       time.Duration // Silence between beeps
	Gain      float64       // 0.0 to 1.0
}

// rampDuration softens beep edges to avoid clicks.
const rampDuration = 5 * time.Millisecond

// Render synthesises the tone as interleaved PCM16.
func (t Tone) Render(sampleRate, channels int) AudioChunk {
	repeat := t.Repeat
	if repeat < 1 {
		repeat = 1
	}
	beep := int(float64(sampleRate) * t.Duration.Seconds())
	gap := int(float64(sampleRate) * t.Gap.Seconds())
	ramp := int(float64(sampleRate) * rampDuration.Seconds())
	if ramp > beep/2 {
		ramp = beep / 2
	}

	frames := repeat*beep + (repeat-1)*gap
	samples := make([]int16, frames*channels)

	pos := 0
	for r := 0; r < repeat; r++ {
		for i := 0; i < beep; i++ {
			env := 1.0
			switch {
			case i < ramp:
				env = float64(i) / float64(ramp)
			case i >= beep-ramp:
				env = float64(beep-1-i) / float64(ramp)
			}
			v := t.Gain * env * math.Sin(2*math.Pi*t.Frequency*float64(i)/float64(sampleRate))
			s := int16(v * 32767)
			for ch := 0; ch < channels; ch++ {
				samples[(pos+i)*channels+ch] = s
			}
		}
		pos += beep + gap
	}

	return AudioChunk{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// Resample converts an interleaved chunk to another sample rate using
// linear interpolation per channel.
func Resample(chunk AudioChunk, toRate int) AudioChunk {
	if chunk.SampleRate == toRate || len(chunk.Samples) == 0 || chunk.Channels <= 0 || toRate <= 0 {
		return chunk
	}

	channels := chunk.Channels
	inFrames := len(chunk.Samples) / channels
	ratio := float64(chunk.SampleRate) / float64(toRate)
	outFrames := int(float64(inFrames) / ratio)

	out := make([]int16, outFrames*channels)
	for i := 0; i < outFrames; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		for ch := 0; ch < channels; ch++ {
			if idx >= inFrames-1 {
				out[i*channels+ch] = chunk.Samples[(inFrames-1)*channels+ch]
				continue
			}
			s1 := float64(chunk.Samples[idx*channels+ch])
			s2 := float64(chunk.Samples[(idx+1)*channels+ch])
			out[i*channels+ch] = int16(s1 + frac*(s2-s1))
		}
	}

	return AudioChunk{Samples: out, SampleRate: toRate, Channels: channels}
}
