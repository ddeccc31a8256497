package application_test

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"

	"lego-house/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []domain.Command
	err  error
}

func (r *recordingTransport) Send(_ context.Context, cmd domain.Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
	return r.err
}

func (r *recordingTransport) commands() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Command, len(r.sent))
	copy(out, r.sent)
	return out
}

type staticTracker struct {
	frames [][]domain.PointGroup
	calls  int
}

func (s *staticTracker) CurrentPoints(_ context.Context) []domain.PointGroup {
	if len(s.frames) == 0 {
		return nil
	}
	f := s.frames[s.calls%len(s.frames)]
	s.calls++
	return f
}

type paintOp struct {
	kind       string
	x, y, w, h float64
}

type recordingSurface struct {
	bounds image.Rectangle
	ops    []paintOp
}

func (s *recordingSurface) Bounds() image.Rectangle { return s.bounds }
func (s *recordingSurface) Clear()                  { s.ops = append(s.ops, paintOp{kind: "clear"}) }
func (s *recordingSurface) Image() image.Image      { return image.NewRGBA(s.bounds) }

func (s *recordingSurface) DrawRect(x, y, w, h float64, _ color.Color) {
	s.ops = append(s.ops, paintOp{kind: "rect", x: x, y: y, w: w, h: h})
}

func (s *recordingSurface) DrawImage(_ image.Image, x, y, w, h float64) {
	s.ops = append(s.ops, paintOp{kind: "image", x: x, y: y, w: w, h: h})
}

type recordingHouse struct {
	requests []domain.HouseRequest
	err      error
}

func (h *recordingHouse) Apply(_ context.Context, req domain.HouseRequest, _ domain.TrackedPointSet) error {
	h.requests = append(h.requests, req)
	return h.err
}

type solidProjection struct {
	img   image.Image
	err   error
	panic bool
}

func (p *solidProjection) Frame(_ context.Context) (image.Image, error) {
	if p.panic {
		panic("projector exploded")
	}
	return p.img, p.err
}

type countingNotifier struct {
	messages []string
}

func (n *countingNotifier) Notify(_ context.Context, msg string) error {
	n.messages = append(n.messages, msg)
	return nil
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}
