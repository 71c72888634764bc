package tone

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVHeader(t *testing.T) {
	data := WAV()
	require.Greater(t, len(data), 44)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))

	riffSize := binary.LittleEndian.Uint32(data[4:8])
	assert.Equal(t, uint32(len(data)-8), riffSize)

	rate := binary.LittleEndian.Uint32(data[24:28])
	assert.Equal(t, uint32(SampleRate), rate)

	samples := int(binary.LittleEndian.Uint32(data[40:44]) / 2)
	assert.Equal(t, int(float64(SampleRate)*Duration.Seconds()), samples)
}

func TestWAVDecays(t *testing.T) {
	data := WAV()[44:]
	samples := len(data) / 2

	peak := func(from, to int) float64 {
		var p float64
		for i := from; i < to; i++ {
			v := int16(binary.LittleEndian.Uint16(data[i*2:]))
			p = math.Max(p, math.Abs(float64(v)))
		}
		return p
	}

	window := samples / 10
	head := peak(0, window)
	tail := peak(samples-window, samples)
	assert.Greater(t, head, tail*2, "tone should fade out")
}

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	p := NewPlayer(t.TempDir())
	p.lookPath = func(name string) (string, error) { return "", errors.New("missing") }
	p.run = func(context.Context, string, ...string) error { return errors.New("unexpected run") }
	p.beep = func(float64, int) error { return nil }
	return p
}

func TestPlayUsesFirstAvailablePlayer(t *testing.T) {
	p := newTestPlayer(t)
	var ran []string
	p.lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	p.run = func(_ context.Context, name string, _ ...string) error {
		ran = append(ran, name)
		return nil
	}
	p.beep = func(float64, int) error {
		t.Fatal("beep should not be used when a player works")
		return nil
	}

	require.NoError(t, p.Play(context.Background()))
	assert.Len(t, ran, 1)
}

func TestPlayFallsBackToBeep(t *testing.T) {
	p := newTestPlayer(t)
	var beeped bool
	p.beep = func(freq float64, ms int) error {
		beeped = true
		assert.Equal(t, Frequency, freq)
		assert.Equal(t, 300, ms)
		return nil
	}

	require.NoError(t, p.Play(context.Background()))
	assert.True(t, beeped)
}

func TestPlayReportsTotalFailure(t *testing.T) {
	p := newTestPlayer(t)
	p.beep = func(float64, int) error { return errors.New("no speaker") }

	err := p.Play(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPlayer)
}
