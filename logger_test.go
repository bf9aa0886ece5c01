// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func swapLogger(t *testing.T, l *slog.Logger) {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	SetLogger(l)
}

func TestDefaultLoggerSilent(t *testing.T) {
	swapLogger(t, nil)
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if Logger().Enabled(context.Background(), level) {
			t.Errorf("default logger enabled at %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	swapLogger(t, custom)
	if Logger() != custom {
		t.Fatal("Logger() did not return the logger set via SetLogger")
	}
	Logger().Info("graph compiled", "nodes", 3)
	if !strings.Contains(buf.String(), "graph compiled") {
		t.Errorf("log output = %q", buf.String())
	}

	SetLogger(nil)
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	swapLogger(t, slog.New(slog.NewTextHandler(&buf, nil)))

	log := ComponentLogger("halgpu")
	SetLogger(nil)
	log.Info("device opened")
	if got := buf.String(); !strings.Contains(got, "component=halgpu") || !strings.Contains(got, "device opened") {
		t.Errorf("log output = %q", got)
	}

	buf.Reset()
	ComponentLogger("graph").Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("logger taken after SetLogger(nil) wrote %q", buf.String())
	}
}

func TestSetLoggerConcurrent(t *testing.T) {
	swapLogger(t, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetLogger(slog.New(slog.DiscardHandler))
		}()
		go func() {
			defer wg.Done()
			ComponentLogger("graph").Debug("frame", "n", 1)
		}()
	}
	wg.Wait()
}
