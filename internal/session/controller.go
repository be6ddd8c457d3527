// Package session owns the single active interview session: the
// in-memory authoritative copy of the current analysis result and
// uploaded file, hydrated from the slot store at startup and written
// through to it on every mutation.
package session

import (
	"context"
	"encoding/base64"
	"log"
	"sync"
	"time"

	"myinterview/api/internal/store"
)

// Lifecycle is the controller's hydration state. Consumers observing
// Hydrating must not treat an empty session as confirmed empty.
type Lifecycle int

const (
	Uninitialized Lifecycle = iota
	Hydrating
	Ready
)

func (l Lifecycle) String() string {
	switch l {
	case Hydrating:
		return "hydrating"
	case Ready:
		return "ready"
	}
	return "uninitialized"
}

const writeThroughTimeout = 15 * time.Second

// Controller is the single source of truth for the active session.
// Consumers read only through Snapshot and mutate only through
// SetResult, SetFile and Clear; it is the sole writer of the store.
type Controller struct {
	store store.SlotStore
	logf  func(format string, args ...any)

	mu        sync.Mutex
	lifecycle Lifecycle
	result    *store.AnalysisResult
	file      []byte // raw upload, this process lifetime only
	fileData  string // base64 payload, reloadable
	fileName  string
	resultSeq uint64
	fileSeq   uint64

	// writeMu serializes write-throughs so the last accepted mutation
	// is also the last slot write.
	writeMu sync.Mutex
	pending sync.WaitGroup
}

// Snapshot is a point-in-time read of the session.
type Snapshot struct {
	Lifecycle Lifecycle
	Result    *store.AnalysisResult
	File      []byte
	FileData  string
	FileName  string
}

// HasFile reports whether the review flow has a viewable source
// document: either the raw upload or a reloadable payload.
func (s Snapshot) HasFile() bool {
	return len(s.File) > 0 || s.FileData != ""
}

func New(st store.SlotStore) *Controller {
	return &Controller{
		store: st,
		logf:  log.Printf,
	}
}

// Hydrate reconstructs in-memory state from the store: Init, then the
// result and file reads concurrently. The lifecycle flips to Ready
// once both complete, found or not; a read failure is logged and
// treated as absent so the session starts empty instead of blocking.
// Idempotent given no intervening writes.
func (c *Controller) Hydrate(ctx context.Context) {
	c.mu.Lock()
	if c.lifecycle == Uninitialized {
		c.lifecycle = Hydrating
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.lifecycle = Ready
		c.mu.Unlock()
	}()

	if err := c.store.Init(ctx); err != nil {
		c.logf("session: store init failed, starting empty: %v", err)
		return
	}

	var (
		wg          sync.WaitGroup
		result      store.AnalysisResult
		resultFound bool
		file        store.StoredFile
		fileFound   bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		result, resultFound, err = c.store.GetResult(ctx)
		if err != nil {
			c.logf("session: result hydration failed, treating as absent: %v", err)
			resultFound = false
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		file, fileFound, err = c.store.GetFile(ctx)
		if err != nil {
			c.logf("session: file hydration failed, treating as absent: %v", err)
			fileFound = false
		}
	}()
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if resultFound {
		// A stored result with no questions cannot drive review; an
		// out-of-band writer may have produced one. Treat it as absent.
		if len(result.Questions) == 0 {
			c.logf("session: stored result has no questions, treating as absent")
		} else {
			c.result = &result
		}
	}
	if fileFound {
		c.fileData = file.Payload
		c.fileName = file.Name
	}
}

// SetResult replaces the in-memory result immediately. A non-nil
// result is written through to the store asynchronously; a write
// failure is logged, never rolled back. Nil unsets only the in-memory
// copy (use Clear to erase the store).
func (c *Controller) SetResult(result *store.AnalysisResult) {
	c.mu.Lock()
	c.result = result
	c.resultSeq++
	seq := c.resultSeq
	c.mu.Unlock()

	if result == nil {
		return
	}

	value := *result
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		c.mu.Lock()
		stale := seq != c.resultSeq
		c.mu.Unlock()
		if stale {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeThroughTimeout)
		defer cancel()
		if err := c.store.SaveResult(ctx, value); err != nil {
			c.logf("session: result write-through failed: %v", err)
		}
	}()
}

// SetFile replaces the in-memory file handle immediately. A non-nil
// upload is encoded to a reloadable base64 payload, the in-memory
// fileData/fileName are updated once encoding completes, and the unit
// is written through asynchronously. Nil clears only the in-memory
// file fields.
func (c *Controller) SetFile(name string, raw []byte) {
	c.mu.Lock()
	c.file = raw
	c.fileSeq++
	seq := c.fileSeq
	if raw == nil {
		c.fileData = ""
		c.fileName = ""
	}
	c.mu.Unlock()

	if raw == nil {
		return
	}

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		payload := base64.StdEncoding.EncodeToString(raw)

		c.mu.Lock()
		if seq != c.fileSeq {
			// A later upload won; discard this encoding.
			c.mu.Unlock()
			return
		}
		c.fileData = payload
		c.fileName = name
		c.mu.Unlock()

		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		c.mu.Lock()
		stale := seq != c.fileSeq
		c.mu.Unlock()
		if stale {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), writeThroughTimeout)
		defer cancel()
		if err := c.store.SaveFile(ctx, payload, name); err != nil {
			c.logf("session: file write-through failed: %v", err)
		}
	}()
}

// Clear resets every in-memory field and erases both store slots.
// The store failure, if any, is returned to the caller.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.result = nil
	c.file = nil
	c.fileData = ""
	c.fileName = ""
	c.resultSeq++
	c.fileSeq++
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.store.Clear(ctx)
}

// Snapshot returns the current in-memory state. The result pointer is
// shared; results are immutable once committed.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Lifecycle: c.lifecycle,
		Result:    c.result,
		File:      c.file,
		FileData:  c.fileData,
		FileName:  c.fileName,
	}
}

// Flush blocks until all pending encodings and write-throughs have
// settled. Used on shutdown and by tests that assert on durable state.
func (c *Controller) Flush() {
	c.pending.Wait()
}
