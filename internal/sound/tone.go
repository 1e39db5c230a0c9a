// Package sound synthesizes the alert tone and hands it to whatever audio
// player the host has.
package sound

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"time"
)

// Tone is a sine wave with an exponential gain ramp.
type Tone struct {
	Frequency  float64
	Duration   time.Duration
	StartGain  float64
	EndGain    float64
	SampleRate int
}

// DefaultTone is a 0.5s 800 Hz beep fading from 0.3 to 0.01.
func DefaultTone() Tone {
	return Tone{
		Frequency:  800,
		Duration:   500 * time.Millisecond,
		StartGain:  0.3,
		EndGain:    0.01,
		SampleRate: 44100,
	}
}

// Samples renders the tone as signed 16-bit mono PCM.
func (t Tone) Samples() []int16 {
	n := int(float64(t.SampleRate) * t.Duration.Seconds())
	if n <= 0 || t.StartGain <= 0 || t.EndGain <= 0 {
		return nil
	}
	out := make([]int16, n)
	ratio := t.EndGain / t.StartGain
	for i := range out {
		x := float64(i) / float64(n)
		gain := t.StartGain * math.Pow(ratio, x)
		v := gain * math.Sin(2*math.Pi*t.Frequency*float64(i)/float64(t.SampleRate))
		out[i] = int16(v * math.MaxInt16)
	}
	return out
}

// WAV encodes the tone as a RIFF/WAVE file.
func (t Tone) WAV() []byte {
	samples := t.Samples()
	dataSize := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(t.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(t.SampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataSize)
	binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// ErrNoPlayer is returned when none of the known audio players is installed.
var ErrNoPlayer = errors.New("no audio player found")

// players are tried in order; the WAV path is appended to the arguments.
var players = [][]string{
	{"paplay"},
	{"aplay", "-q"},
	{"afplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// Player plays a Tone through an external command.
type Player struct {
	tone     Tone
	timeout  time.Duration
	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewPlayer returns a player for t.
func NewPlayer(t Tone) *Player {
	return &Player{
		tone:     t,
		timeout:  5 * time.Second,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

// Beep synthesizes the tone and blocks until playback ends.
func (p *Player) Beep() error {
	var cmd []string
	for _, candidate := range players {
		if path, err := p.lookPath(candidate[0]); err == nil {
			cmd = append([]string{path}, candidate[1:]...)
			break
		}
	}
	if cmd == nil {
		return ErrNoPlayer
	}

	f, err := os.CreateTemp("", "sddb-alert-*.wav")
	if err != nil {
		return fmt.Errorf("creating tone file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(p.tone.WAV()); err != nil {
		f.Close()
		return fmt.Errorf("writing tone file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing tone file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.run(ctx, cmd[0], append(cmd[1:], f.Name())...); err != nil {
		return fmt.Errorf("%s: %w", cmd[0], err)
	}
	return nil
}
