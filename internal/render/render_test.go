package render

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/justyntemme/ghostline/pkg/framework/debug"
	"github.com/justyntemme/ghostline/pkg/ghostline"
)

func newEngine(s ghostline.Settings) *ghostline.Engine {
	e := ghostline.New(ghostline.WithLogger(debug.Discard()))
	s.Apply(e.Parameters())
	return e
}

func writeClip(t *testing.T, path string, clip *Clip, bitDepth int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Encode(f, clip, bitDepth); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func readClip(t *testing.T, path string) *Clip {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	clip, err := Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return clip
}

func TestWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		clip := NewClip(8000, depth, 2, 100)
		for i := 0; i < 100; i++ {
			clip.Channels[0][i] = float32(math.Sin(float64(i) / 10))
			clip.Channels[1][i] = -0.5
		}
		path := filepath.Join(t.TempDir(), "clip.wav")
		writeClip(t, path, clip, depth)

		got := readClip(t, path)
		if got.SampleRate != 8000 || got.BitDepth != depth || len(got.Channels) != 2 || got.Frames() != 100 {
			t.Fatalf("%d-bit: unexpected format %d Hz %d-bit %d ch %d frames",
				depth, got.SampleRate, got.BitDepth, len(got.Channels), got.Frames())
		}
		tolerance := 1.0 / fullScale(depth) * 1.01
		for ch := range clip.Channels {
			for i := range clip.Channels[ch] {
				if d := math.Abs(float64(got.Channels[ch][i] - clip.Channels[ch][i])); d > tolerance+1e-7 {
					t.Fatalf("%d-bit ch %d frame %d: error %g", depth, ch, i, d)
				}
			}
		}
	}
}

func TestEncodeClips(t *testing.T) {
	clip := NewClip(8000, 16, 1, 5)
	clip.Channels[0][0] = 2
	clip.Channels[0][1] = -2
	clip.Channels[0][2] = float32(math.NaN())
	clip.Channels[0][3] = float32(math.Inf(-1))
	clip.Channels[0][4] = 0.5

	path := filepath.Join(t.TempDir(), "clipped.wav")
	writeClip(t, path, clip, 16)
	got := readClip(t, path)

	want := []float32{32767.0 / 32768.0, -1, 0, -1, 0.5}
	for i, w := range want {
		if got.Channels[0][i] != w {
			t.Errorf("frame %d: expected %v, got %v", i, w, got.Channels[0][i])
		}
	}
}

func TestCodecErrors(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("definitely not RIFF data"))); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("Expected ErrInvalidWAV, got %v", err)
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := Encode(f, NewClip(8000, 8, 1, 4), 8); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat for 8-bit, got %v", err)
	}
	if err := Encode(f, &Clip{SampleRate: 8000}, 16); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat without channels, got %v", err)
	}
}

func TestProcess(t *testing.T) {
	t.Run("Passthrough", func(t *testing.T) {
		e := newEngine(ghostline.Settings{DelayTime: 0.3, Dry: 1})
		in := NewClip(8000, 16, 2, 1000)
		for i := range in.Channels[0] {
			in.Channels[0][i] = float32(i%50) / 50
			in.Channels[1][i] = -float32(i%30) / 30
		}

		out, res, err := Process(context.Background(), e, in, Options{BlockSize: 128, Tail: -1})
		if err != nil {
			t.Fatal(err)
		}
		if out.Frames() != 1000 || res.TailFrames != 0 {
			t.Fatalf("Expected no tail, got %d frames", out.Frames())
		}
		if res.Blocks != 8 {
			t.Errorf("Expected 8 blocks, got %d", res.Blocks)
		}
		if res.BlockTime.Count != uint64(res.Blocks) {
			t.Errorf("Expected %d timed blocks, got %d", res.Blocks, res.BlockTime.Count)
		}
		if p99 := res.BlockTime.Percentile(99); p99 < res.BlockTime.Min || p99 > res.BlockTime.Max {
			t.Errorf("p99 %v outside [%v, %v]", p99, res.BlockTime.Min, res.BlockTime.Max)
		}
		for ch := range in.Channels {
			for i := range in.Channels[ch] {
				if out.Channels[ch][i] != in.Channels[ch][i] {
					t.Fatalf("ch %d frame %d: passthrough mismatch", ch, i)
				}
			}
		}
		if e.State() != ghostline.Released {
			t.Error("Engine should be released after rendering")
		}
	})

	t.Run("Tail", func(t *testing.T) {
		e := newEngine(ghostline.Settings{DelayTime: 0.5, Feedback: 0.5, Wet: 1})
		in := NewClip(1000, 16, 1, 10)
		in.Channels[0][0] = 1

		out, res, err := Process(context.Background(), e, in, Options{BlockSize: 64})
		if err != nil {
			t.Fatal(err)
		}
		if res.TailFrames != 2000 || out.Frames() != 2010 {
			t.Fatalf("Expected 2 s tail, got %d frames", out.Frames())
		}
		for i, want := range map[int]float32{500: 1, 1000: 0.5, 1500: 0.25, 2000: 0.125} {
			if math.Abs(float64(out.Channels[0][i]-want)) > 1e-6 {
				t.Errorf("frame %d: expected %v, got %v", i, want, out.Channels[0][i])
			}
		}
		if math.Abs(float64(res.Analysis.Peak)-1) > 1e-6 {
			t.Errorf("Expected peak 1, got %v", res.Analysis.Peak)
		}

		_, res, err = Process(context.Background(), e, in, Options{BlockSize: 64, Tail: 100 * time.Millisecond})
		if err != nil {
			t.Fatal(err)
		}
		if res.TailFrames != 100 {
			t.Errorf("Expected 100 tail frames, got %d", res.TailFrames)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, _, err := Process(ctx, newEngine(ghostline.DefaultSettings()), NewClip(8000, 16, 1, 100), Options{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})

	t.Run("InvalidRate", func(t *testing.T) {
		_, _, err := Process(context.Background(), newEngine(ghostline.DefaultSettings()), NewClip(0, 16, 1, 100), Options{})
		if !errors.Is(err, ghostline.ErrInvalidSampleRate) {
			t.Errorf("Expected ErrInvalidSampleRate, got %v", err)
		}
	})
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")

	in := NewClip(1000, 16, 2, 50)
	in.Channels[0][0] = 0.5
	in.Channels[1][0] = 0.5
	writeClip(t, inPath, in, 16)

	e := newEngine(ghostline.Settings{DelayTime: 0.2, Wet: 1, Dry: 1})
	res, err := File(context.Background(), e, inPath, outPath, Options{BlockSize: 32, BitDepth: 24, Tail: 300 * time.Millisecond, Logger: debug.Discard()})
	if err != nil {
		t.Fatal(err)
	}
	if res.Frames != 50 || res.TailFrames != 300 {
		t.Errorf("Unexpected result %+v", res)
	}

	out := readClip(t, outPath)
	if out.BitDepth != 24 || out.Frames() != 350 {
		t.Fatalf("Unexpected output format %d-bit %d frames", out.BitDepth, out.Frames())
	}
	for ch := range out.Channels {
		if math.Abs(float64(out.Channels[ch][0]-0.5)) > 1e-4 || math.Abs(float64(out.Channels[ch][200]-0.5)) > 1e-4 {
			t.Errorf("ch %d: expected dry and delayed impulse, got %v and %v", ch, out.Channels[ch][0], out.Channels[ch][200])
		}
	}

	if _, err := File(context.Background(), e, filepath.Join(dir, "missing.wav"), outPath, Options{}); err == nil {
		t.Error("Expected error for missing input")
	}
}

func TestImpulse(t *testing.T) {
	e := newEngine(ghostline.Settings{DelayTime: 0.1, Feedback: 0.5, Wet: 1})
	ir, err := Impulse(e, 1000, 400, 64)
	if err != nil {
		t.Fatal(err)
	}
	if len(ir) != ghostline.MaxChannels {
		t.Fatalf("Expected %d channels, got %d", ghostline.MaxChannels, len(ir))
	}
	for i, want := range map[int]float32{0: 0, 100: 1, 200: 0.5, 300: 0.25} {
		if ir[0][i] != want || ir[1][i] != want {
			t.Errorf("frame %d: expected %v, got %v / %v", i, want, ir[0][i], ir[1][i])
		}
	}

	if _, err := Impulse(e, 1000, 0, 64); err == nil {
		t.Error("Expected error for empty impulse")
	}
}
