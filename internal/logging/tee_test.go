package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTeeHandlerCollapses(t *testing.T) {
	if _, ok := newTeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every child is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := newTeeHandler(nil, inner, nil); h != inner {
		t.Fatal("expected the single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsChildLevels(t *testing.T) {
	var info, debug bytes.Buffer
	h := newTeeHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("tee should be enabled when any child accepts the level")
	}

	logger := slog.New(h)
	logger.Debug("segment transcribed", "segment", 2)
	logger.Info("file transcribed")

	if strings.Contains(info.String(), "segment transcribed") {
		t.Fatalf("info handler received a debug record: %s", info.String())
	}
	if !strings.Contains(debug.String(), "segment transcribed") || !strings.Contains(debug.String(), "file transcribed") {
		t.Fatalf("debug handler missed records: %s", debug.String())
	}
	if !strings.Contains(info.String(), "file transcribed") {
		t.Fatalf("info handler missed the info record: %s", info.String())
	}
}

func TestTeeHandlerPropagatesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := newTeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	slog.New(h).With("run_id", "r1").WithGroup("job").Info("queued", "file", "a.wav")

	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, `"run_id":"r1"`) || !strings.Contains(out, `"job":{"file":"a.wav"}`) {
			t.Fatalf("attrs or group lost: %s", out)
		}
	}
}

func TestTeeLogger(t *testing.T) {
	var base, extra bytes.Buffer
	logger := TeeLogger(slog.New(slog.NewJSONHandler(&base, nil)), slog.NewJSONHandler(&extra, nil))
	logger.Info("batch started")
	if !strings.Contains(base.String(), "batch started") || !strings.Contains(extra.String(), "batch started") {
		t.Fatalf("tee did not reach both handlers: base=%q extra=%q", base.String(), extra.String())
	}

	extra.Reset()
	TeeLogger(nil, slog.NewJSONHandler(&extra, nil)).Info("only extra")
	if !strings.Contains(extra.String(), "only extra") {
		t.Fatal("nil base should still write to the extra handler")
	}
}
