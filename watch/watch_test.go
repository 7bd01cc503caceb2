package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ByLCY/quire/document"
)

type loaded struct {
	doc   *document.Document
	title string
}

func waitLoad(t *testing.T, ch <-chan loaded) loaded {
	t.Helper()
	select {
	case l := <-ch:
		return l
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload within timeout")
	}
	return loaded{}
}

// TestWatcherReloadsOnWrite 验证初次加载与写入后的重新加载，解析失败时保留旧版本。
func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.quire")
	if err := os.WriteFile(path, []byte(`doc "v1" { p { "one" } }`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	core, logs := observer.New(zap.WarnLevel)
	ch := make(chan loaded, 8)
	w, err := New(path, func(doc *document.Document, title string) { ch <- loaded{doc, title} }, zap.New(core))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if l := waitLoad(t, ch); l.title != "v1" || l.doc.Len() != 1 {
		t.Fatalf("unexpected initial load: %q %d", l.title, l.doc.Len())
	}

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(`doc "broken" { p { "one" `), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for logs.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if logs.Len() == 0 {
		t.Fatalf("parse failure should be logged")
	}

	if err := os.WriteFile(path, []byte(`doc "v2" { h1 { "a" } p { "b" } }`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for {
		l := waitLoad(t, ch)
		if l.title == "v2" {
			if l.doc.Len() != 2 {
				t.Fatalf("unexpected block count %d", l.doc.Len())
			}
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop")
	}
}

func TestWatcherInitialLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.quire")
	if err := os.WriteFile(path, []byte(`not a document`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	w, err := New(path, func(*document.Document, string) { t.Fatalf("handler must not run") }, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("initial parse error should be returned")
	}
}
