package workflow

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/example/image-predict/internal/labels"
	"github.com/example/image-predict/internal/preview"
	"github.com/example/image-predict/internal/validation"
)

// Prediction is the classifier's answer for the currently accepted image.
type Prediction struct {
	Label      string
	Confidence float64
}

// Session is the single source of truth for one workflow: the accepted image,
// its preview reference, the optional declared label, the last error, and the
// last prediction. All mutation goes through the methods below; the two
// acquisition channels and the submitter are the only writers.
//
// The invariant maintained throughout: a preview reference is set if and only
// if an accepted image is set. Accepting through one channel evicts whatever
// the other channel had accepted (last write wins), releasing any file-backed
// preview handle in the process.
type Session struct {
	mu       sync.Mutex
	id       string
	previews *preview.Store

	previewHandle string // file-sourced, releasable
	previewURL    string // link-sourced, plain string
	image         *validation.CandidateImage
	label         string
	lastError     string
	prediction    *Prediction
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// AcceptFile promotes a validated file-sourced candidate into the session,
// registering its bytes as a local preview. Any prior acceptance from either
// channel is replaced and its handle released. The last prediction is kept
// until a new one arrives.
func (s *Session) AcceptFile(candidate *validation.CandidateImage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releasePreviewLocked()
	s.previewHandle = s.previews.Put(candidate.Bytes, candidate.DeclaredType)
	s.previewURL = ""
	s.image = candidate
	s.lastError = ""
}

// AcceptLink promotes a validated link-sourced candidate. The preview
// reference is the remote URL itself; nothing to release on this path beyond
// a superseded file handle.
func (s *Session) AcceptLink(candidate *validation.CandidateImage, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releasePreviewLocked()
	s.previewURL = url
	s.image = candidate
	s.lastError = ""
}

// RejectCandidate records a validation failure: the error message becomes
// visible and no partial image state survives.
func (s *Session) RejectCandidate(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releasePreviewLocked()
	s.image = nil
	s.lastError = message
}

// SetLabel stores the user-declared ground-truth label. The empty string
// clears it; anything else must belong to the class vocabulary.
func (s *Session) SetLabel(label string) error {
	if label != "" && !labels.Valid(label) {
		return fmt.Errorf("unknown label %q", label)
	}
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
	return nil
}

// Image returns the currently accepted image and declared label, or nil when
// nothing has been accepted. Callers use this to check the submission
// precondition before performing any I/O.
func (s *Session) Image() (*validation.CandidateImage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.label
}

// ApplyPrediction records a completed prediction. Concurrent submissions are
// not serialized; whichever response is applied last wins.
func (s *Session) ApplyPrediction(result Prediction) {
	s.mu.Lock()
	s.prediction = &result
	s.lastError = ""
	s.mu.Unlock()
}

// ApplyFailure records a failed submission. The previous prediction, if any,
// stays visible.
func (s *Session) ApplyFailure(message string) {
	s.mu.Lock()
	s.lastError = message
	s.mu.Unlock()
}

// PreviewBytes resolves the file-sourced preview, if that is what is showing.
func (s *Session) PreviewBytes() ([]byte, string, bool) {
	s.mu.Lock()
	handle := s.previewHandle
	s.mu.Unlock()
	if handle == "" {
		return nil, "", false
	}
	return s.previews.Get(handle)
}

// Teardown clears the session and releases any file-backed preview handle.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releasePreviewLocked()
	s.image = nil
	s.label = ""
	s.lastError = ""
	s.prediction = nil
}

func (s *Session) releasePreviewLocked() {
	if s.previewHandle != "" {
		s.previews.Release(s.previewHandle)
		s.previewHandle = ""
	}
	s.previewURL = ""
}

// Snapshot is the renderable view of a session. Prediction fields degrade to
// display defaults when no (or a malformed) prediction is present.
type Snapshot struct {
	SessionID      string `json:"session_id"`
	PreviewKind    string `json:"preview_kind,omitempty"`
	PreviewRef     string `json:"preview_ref,omitempty"`
	HasImage       bool   `json:"has_image"`
	DeclaredLabel  string `json:"declared_label,omitempty"`
	LastError      string `json:"last_error,omitempty"`
	PredictedLabel string `json:"predicted_label"`
	Confidence     string `json:"confidence"`
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:      s.id,
		HasImage:       s.image != nil,
		DeclaredLabel:  s.label,
		LastError:      s.lastError,
		PredictedLabel: "No prediction yet",
		Confidence:     "0%",
	}

	switch {
	case s.previewHandle != "":
		snap.PreviewKind = "file"
		snap.PreviewRef = s.previewHandle
	case s.previewURL != "":
		snap.PreviewKind = "link"
		snap.PreviewRef = s.previewURL
	}

	if s.prediction != nil {
		if s.prediction.Label != "" {
			snap.PredictedLabel = s.prediction.Label
		}
		snap.Confidence = strconv.FormatFloat(s.prediction.Confidence, 'f', -1, 64) + "%"
	}

	return snap
}

// Store is the registry of live workflow sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	previews *preview.Store
	newID    func() string
}

// NewStore creates a session registry backed by the given preview store.
func NewStore(previews *preview.Store, newID func() string) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		previews: previews,
		newID:    newID,
	}
}

// Create starts a new workflow session with all optional fields empty.
func (s *Store) Create() *Session {
	session := &Session{id: s.newID(), previews: s.previews}
	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()
	return session
}

// Get looks up a live session.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	return session, ok
}

// Remove tears a session down and drops it from the registry.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if ok {
		session.Teardown()
	}
	return ok
}
