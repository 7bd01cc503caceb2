// Package session holds the document being edited and keeps its pagination
// result current through a schedule.Distributor.
package session

import (
	"context"
	"sync"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
	"github.com/ByLCY/quire/schedule"
)

// Session serialises edits. Every successful edit replaces the document
// wholesale and notifies the distributor.
//
// With an Immediate ticker the pass and its hooks run inside the edit call, so
// OnPublish/OnError hooks must not edit the same session synchronously.
type Session struct {
	mu   sync.Mutex
	doc  *document.Document
	dist *schedule.Distributor
}

// New starts a session with a single empty paragraph and requests the first
// pass.
func New(opts schedule.Options) *Session {
	s := &Session{dist: schedule.New(opts)}
	s.Replace(document.New())
	return s
}

// Document returns the current snapshot. Callers must not mutate it.
func (s *Session) Document() *document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Replace swaps in a whole new document, e.g. after re-reading a source file.
func (s *Session) Replace(doc *document.Document) {
	if doc == nil {
		doc = document.FromBlocks()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.dist.OnDocumentChange(doc)
}

func (s *Session) apply(edit func(*document.Document) (*document.Document, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := edit(s.doc)
	if err != nil {
		return err
	}
	if next == s.doc {
		return nil
	}
	s.doc = next
	s.dist.OnDocumentChange(next)
	return nil
}

func (s *Session) ToggleFormat(sel document.Selection, f document.Format) error {
	return s.apply(func(d *document.Document) (*document.Document, error) {
		return document.ToggleFormat(d, sel, f)
	})
}

func (s *Session) ToggleBlock(sel document.Selection, kind document.Kind) error {
	return s.apply(func(d *document.Document) (*document.Document, error) {
		return document.ToggleBlock(d, sel, kind)
	})
}

func (s *Session) InsertText(at document.Point, text string) error {
	return s.apply(func(d *document.Document) (*document.Document, error) {
		return document.InsertText(d, at, text)
	})
}

func (s *Session) InsertBlock(index int, b *document.Block) error {
	return s.apply(func(d *document.Document) (*document.Document, error) {
		return document.InsertBlock(d, index, b)
	})
}

// IsFormatActive never fails; an invalid selection is reported as inactive.
func (s *Session) IsFormatActive(sel document.Selection, f document.Format) bool {
	return document.IsFormatActive(s.Document(), sel, f)
}

func (s *Session) IsBlockActive(sel document.Selection, kind document.Kind) bool {
	return document.IsBlockActive(s.Document(), sel, kind)
}

// Pages returns the latest published pagination result, nil before the first
// pass completes.
func (s *Session) Pages() *layout.Result { return s.dist.Pages() }

// Wait blocks until the distributor is idle.
func (s *Session) Wait(ctx context.Context) error { return s.dist.Wait(ctx) }

func (s *Session) Stats() schedule.Stats { return s.dist.Stats() }

// Close stops pagination. Edits after Close still update the document.
func (s *Session) Close() { s.dist.Close() }
