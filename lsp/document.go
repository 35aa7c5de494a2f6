// Copyright © 2025 The agnix authors

package lsp

import "sync"

// Document is an open text document tracked by the server. The content
// lives behind a snapshot pointer that is replaced wholesale on every
// edit; in-flight validations keep their own pointer and compare it
// against the current one before publishing, so results computed from
// stale text are dropped without any content comparison.
type Document struct {
	URI      string
	Version  int32
	snapshot *string
}

// DocumentStore manages open documents with thread-safe access.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Document)}
}

// Set installs a new snapshot for uri, creating the document on first
// use. It returns the snapshot pointer for the fence check.
func (s *DocumentStore) Set(uri string, version int32, content string) *string {
	snap := &content
	s.mu.Lock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		s.docs[uri] = doc
	}
	doc.Version = version
	doc.snapshot = snap
	s.mu.Unlock()
	return snap
}

// Snapshot returns the current snapshot pointer for uri, or nil when the
// document is not open.
func (s *DocumentStore) Snapshot(uri string) *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.docs[uri]; ok {
		return doc.snapshot
	}
	return nil
}

// Close removes a document from the store.
func (s *DocumentStore) Close(uri string) {
	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()
}

// URIs returns the URIs of all open documents.
func (s *DocumentStore) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uris := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		uris = append(uris, uri)
	}
	return uris
}
