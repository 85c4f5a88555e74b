package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

type fakeProber struct {
	duration float64
	err      error
	calls    int
}

func (p *fakeProber) Duration(ctx context.Context, data []byte) (float64, error) {
	p.calls++
	return p.duration, p.err
}

func TestMaterializeReturnsScrubPosition(t *testing.T) {
	c := NewController(&fakeProber{duration: 10}, zerolog.Nop())
	for i := 0; i < 3; i++ {
		ts, err := c.Materialize(context.Background(), Source{Data: []byte("clip"), Position: 3.25})
		if err != nil {
			t.Fatalf("materialize: %v", err)
		}
		if !ts.Materialized() || ts.Seconds() != 3.25 {
			t.Fatalf("run %d: got %+v", i, ts)
		}
	}
}

func TestMaterializeClampsToDuration(t *testing.T) {
	c := NewController(&fakeProber{duration: 4.5}, zerolog.Nop())
	ts, err := c.Materialize(context.Background(), Source{Data: []byte("clip"), Position: 9})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if ts.Seconds() != 4.5 {
		t.Fatalf("expected clamp to 4.5, got %v", ts.Seconds())
	}
}

func TestMaterializeProbeFailureIsNotFatal(t *testing.T) {
	c := NewController(&fakeProber{err: errors.New("ffprobe exploded")}, zerolog.Nop())
	ts, err := c.Materialize(context.Background(), Source{Data: []byte("clip"), Position: 7})
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if ts.Seconds() != 7 || !ts.Materialized() {
		t.Fatalf("unexpected %+v", ts)
	}
}

func TestMaterializeErrors(t *testing.T) {
	c := NewController(nil, zerolog.Nop())
	if _, err := c.Materialize(context.Background(), Source{Position: 1}); !errors.Is(err, ErrClipMissing) {
		t.Fatalf("missing clip err=%v", err)
	}
	for _, pos := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := c.Materialize(context.Background(), Source{Data: []byte("x"), Position: pos}); !errors.Is(err, ErrInvalidPosition) {
			t.Fatalf("pos %v err=%v", pos, err)
		}
	}
}

func TestCaptureRequiresBothClips(t *testing.T) {
	p := &fakeProber{duration: 10}
	c := NewController(p, zerolog.Nop())
	if _, err := c.Capture(context.Background(), Source{Data: []byte("a")}, Source{}); !errors.Is(err, ErrClipMissing) {
		t.Fatalf("err=%v", err)
	}
	if p.calls != 0 {
		t.Fatalf("prober called %d times for an incomplete pair", p.calls)
	}
	pair, err := c.Capture(context.Background(), Source{Data: []byte("a"), Position: 1.5}, Source{Data: []byte("b"), Position: 0})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if pair.A.Seconds() != 1.5 || pair.B.Seconds() != 0 || !pair.B.Materialized() {
		t.Fatalf("unexpected pair %+v", pair)
	}
}

func TestTimestampString(t *testing.T) {
	cases := map[float64]string{0: "0", 1.5: "1.5", 12.041666: "12.041666", 3: "3"}
	for in, want := range cases {
		ts := Timestamp{seconds: in, materialized: true}
		if got := ts.String(); got != want {
			t.Fatalf("String(%v) = %q, want %q", in, got, want)
		}
	}
	var zero Timestamp
	if zero.Materialized() {
		t.Fatalf("zero timestamp must be unset")
	}
}

type fakeGrabber struct {
	w, h int
	at   float64
}

func (g *fakeGrabber) Frame(ctx context.Context, data []byte, at float64) ([]byte, error) {
	g.at = at
	img := image.NewNRGBA(image.Rect(0, 0, g.w, g.h))
	for x := 0; x < g.w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestPosterResizesFrame(t *testing.T) {
	g := &fakeGrabber{w: 1280, h: 720}
	out, err := Poster(context.Background(), g, []byte("clip"), 2.5, 320)
	if err != nil {
		t.Fatalf("poster: %v", err)
	}
	if g.at != 2.5 {
		t.Fatalf("frame requested at %v", g.at)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("poster size %dx%d", b.Dx(), b.Dy())
	}
}

func TestPosterPlaceholderWithoutClip(t *testing.T) {
	out, err := Poster(context.Background(), nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("poster: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != DefaultPosterWidth {
		t.Fatalf("placeholder width %d", b.Dx())
	}
}
