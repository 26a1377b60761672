package audio

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/justyntemme/ghostline/pkg/framework/debug"
	"github.com/justyntemme/ghostline/pkg/ghostline"
)

type rampSource struct {
	next     float32
	finished bool
}

func (r *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = r.next
		r.next++
	}
}

func (r *rampSource) Finished() bool { return r.finished }

func TestStreamReader(t *testing.T) {
	src := &rampSource{}
	reader := NewStreamReader(src)

	p := make([]byte, 3*bytesPerFrame+3)
	n, err := reader.Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3*bytesPerFrame {
		t.Fatalf("Expected whole frames only, got %d bytes", n)
	}
	for i := 0; i < 6; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if got != float32(i) {
			t.Errorf("sample %d: expected %d, got %v", i, i, got)
		}
	}

	if n, err := reader.Read(make([]byte, 4)); n != 0 || err != nil {
		t.Errorf("Expected empty read for a partial frame, got %d, %v", n, err)
	}

	src.finished = true
	if _, err := reader.Read(p); err != io.EOF {
		t.Errorf("Expected io.EOF once finished, got %v", err)
	}
}

type constant float32

func (c constant) Generate(left, right []float32) {
	for i := range left {
		left[i] = float32(c)
		right[i] = -float32(c)
	}
}

func preparedEngine(t *testing.T, s ghostline.Settings, opts ...ghostline.Option) *ghostline.Engine {
	t.Helper()
	e := ghostline.New(append([]ghostline.Option{ghostline.WithLogger(debug.Discard())}, opts...)...)
	s.Apply(e.Parameters())
	if err := e.Prepare(1000, 16); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestEngineSource(t *testing.T) {
	t.Run("StereoPassthrough", func(t *testing.T) {
		e := preparedEngine(t, ghostline.Settings{DelayTime: 0.3, Dry: 1})
		src := NewEngineSource(e, constant(0.25), 16, 0)

		dst := make([]float32, 2*40)
		src.Process(dst)
		for i := 0; i < 40; i++ {
			if dst[i*2] != 0.25 || dst[i*2+1] != -0.25 {
				t.Fatalf("frame %d: got %v / %v", i, dst[i*2], dst[i*2+1])
			}
		}
		if src.Played() != 40 {
			t.Errorf("Expected 40 frames played, got %d", src.Played())
		}
		if src.Finished() {
			t.Error("Unlimited source should never finish")
		}
		if src.Meter.Peak() != 0.25 {
			t.Errorf("Expected meter peak 0.25, got %v", src.Meter.Peak())
		}
		if math.Abs(src.RMS.RMS()-0.25) > 1e-9 {
			t.Errorf("Expected RMS 0.25, got %v", src.RMS.RMS())
		}
		if src.Load.Blocks() != 3 {
			t.Errorf("Expected 3 engine blocks, got %d", src.Load.Blocks())
		}
	})

	t.Run("MonoEngineDuplicates", func(t *testing.T) {
		e := preparedEngine(t, ghostline.Settings{DelayTime: 0.3, Dry: 1}, ghostline.WithChannels(1))
		src := NewEngineSource(e, constant(0.5), 16, 0)
		dst := make([]float32, 8)
		src.Process(dst)
		for i := 0; i < 4; i++ {
			if dst[i*2] != 0.5 || dst[i*2+1] != 0.5 {
				t.Fatalf("frame %d: expected the left channel on both sides", i)
			}
		}
	})

	t.Run("FinishesAfterTail", func(t *testing.T) {
		e := preparedEngine(t, ghostline.Settings{DelayTime: 0.01, Wet: 1})
		src := NewEngineSource(e, constant(1), 16, 10)

		// 10 frames of input, then 2 s of tail at 1 kHz
		dst := make([]float32, 2*25)
		src.Process(dst)
		for i, want := range map[int]float32{5: 0, 10: 1, 19: 1, 20: 0, 24: 0} {
			if dst[2*i] != want {
				t.Errorf("frame %d: expected %v, got %v", i, want, dst[2*i])
			}
		}
		if src.Finished() {
			t.Fatal("Source should keep playing the tail")
		}
		src.Process(make([]float32, 2*2000))
		if !src.Finished() {
			t.Error("Source should finish after the tail")
		}
	})
}

func TestPlucks(t *testing.T) {
	p := NewPlucks(1000, 100*time.Millisecond, 100)
	left := make([]float32, 250)
	right := make([]float32, 250)
	p.Generate(left, right)

	for i := range left {
		if left[i] != right[i] {
			t.Fatalf("frame %d: channels differ", i)
		}
		if math.Abs(float64(left[i])) > 0.8 {
			t.Fatalf("frame %d: %v exceeds the pluck level", i, left[i])
		}
	}
	// each pluck restarts at zero phase
	if left[0] != 0 || left[100] != 0 || left[200] != 0 {
		t.Error("Plucks should restart every interval")
	}
	if math.Abs(float64(left[99])) >= math.Abs(float64(left[2])) {
		t.Error("Pluck should decay")
	}
}

func TestTriangle(t *testing.T) {
	period := time.Second
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0.2},
		{250 * time.Millisecond, 0.35},
		{500 * time.Millisecond, 0.5},
		{750 * time.Millisecond, 0.35},
		{1250 * time.Millisecond, 0.35},
	}
	for _, tt := range tests {
		if got := triangle(0.2, 0.5, tt.elapsed, period); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("at %v expected %v, got %v", tt.elapsed, tt.want, got)
		}
	}
}

func TestSweep(t *testing.T) {
	registry := ghostline.NewRegistry()
	p := registry.Lookup(ghostline.KeyDelayTime)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	Sweep(ctx, p, 0.1, 0.9, 100*time.Millisecond, 5*time.Millisecond)

	if v := p.Value(); v < 0.1 || v > 0.9 {
		t.Errorf("Swept value %v outside [0.1, 0.9]", v)
	}
	if p.Value() == 0.3 {
		t.Error("Sweep should have written the parameter")
	}

	// invalid timing returns immediately
	Sweep(context.Background(), p, 0.1, 0.9, 0, time.Millisecond)
}
