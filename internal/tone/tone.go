// Package tone synthesizes and plays the short attention cue that
// accompanies every displayed alert.
package tone

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
)

const (
	Frequency  = 880.0
	Duration   = 300 * time.Millisecond
	DecayRate  = 12.0
	SampleRate = 22050
	amplitude  = 0.6
)

// WAV renders the alert tone as a 16-bit mono PCM WAV file: a sine at
// Frequency shaped by an exponential decay envelope.
func WAV() []byte {
	samples := int(float64(SampleRate) * Duration.Seconds())
	pcm := make([]int16, samples)
	for i := range pcm {
		t := float64(i) / SampleRate
		envelope := math.Exp(-DecayRate * t)
		v := amplitude * envelope * math.Sin(2*math.Pi*Frequency*t)
		pcm[i] = int16(v * math.MaxInt16)
	}

	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataSize := uint32(len(pcm) * 2)
	byteRate := uint32(SampleRate * channels * bitsPerSample / 8)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, byteRate)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataSize)
	_ = binary.Write(&buf, binary.LittleEndian, pcm)
	return buf.Bytes()
}

// ErrNoPlayer is returned when no system audio player is installed.
var ErrNoPlayer = errors.New("no audio player available")

// Player plays the tone through the first available system audio player,
// falling back to the OS beep.
type Player struct {
	dir string

	once     sync.Once
	path     string
	writeErr error

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
	beep     func(freq float64, duration int) error
}

// NewPlayer creates a player that caches the rendered WAV under dir.
func NewPlayer(dir string) *Player {
	return &Player{
		dir:      dir,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
		beep: beeep.Beep,
	}
}

// Play blocks until the tone finished or every player failed.
func (p *Player) Play(ctx context.Context) error {
	path, err := p.file()
	if err == nil {
		for _, candidate := range candidates(runtime.GOOS, path) {
			bin, lookErr := p.lookPath(candidate.name)
			if lookErr != nil {
				continue
			}
			runErr := p.run(ctx, bin, candidate.args...)
			if runErr == nil {
				return nil
			}
			err = fmt.Errorf("%s: %w", candidate.name, runErr)
		}
	}

	if beepErr := p.beep(Frequency, int(Duration/time.Millisecond)); beepErr != nil {
		if err == nil {
			err = ErrNoPlayer
		}
		return fmt.Errorf("play tone: %w (beep: %v)", err, beepErr)
	}
	return nil
}

func (p *Player) file() (string, error) {
	p.once.Do(func() {
		if err := os.MkdirAll(p.dir, 0o755); err != nil {
			p.writeErr = fmt.Errorf("create tone dir: %w", err)
			return
		}
		path := filepath.Join(p.dir, "alert.wav")
		if err := os.WriteFile(path, WAV(), 0o644); err != nil {
			p.writeErr = fmt.Errorf("write tone: %w", err)
			return
		}
		p.path = path
	})
	return p.path, p.writeErr
}

type command struct {
	name string
	args []string
}

func candidates(goos, path string) []command {
	switch goos {
	case "darwin":
		return []command{{"afplay", []string{path}}}
	case "windows":
		script := fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", path)
		return []command{{"powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}}}
	default:
		return []command{
			{"paplay", []string{path}},
			{"pw-play", []string{path}},
			{"aplay", []string{"-q", path}},
		}
	}
}
