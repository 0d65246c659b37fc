package validation

import (
	"fmt"
	"strings"
)

// MaxFileSizeMB is the upper bound for a submittable image.
const MaxFileSizeMB = 1

// MaxSizeBytes is MaxFileSizeMB expressed in bytes.
const MaxSizeBytes = MaxFileSizeMB * 1024 * 1024

// SourceKind identifies which acquisition channel produced a candidate.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceLink SourceKind = "link"
)

// CandidateImage carries raw image bytes plus the metadata declared by the
// channel that produced it. It is transient: validated once, then either
// promoted into workflow state or discarded.
type CandidateImage struct {
	Bytes        []byte
	Filename     string
	DeclaredType string
	DeclaredSize int64
	Source       SourceKind
}

// Reason classifies why a candidate was rejected.
type Reason string

const (
	ReasonMissing    Reason = "missing"
	ReasonTooLarge   Reason = "too-large"
	ReasonWrongType  Reason = "wrong-type"
	ReasonFetchFail  Reason = "fetch-failed"
	ReasonNotAnImage Reason = "not-an-image-response"
)

// Outcome is the result of validating a candidate. A zero Reason means the
// candidate was accepted.
type Outcome struct {
	Candidate *CandidateImage
	Reason    Reason
}

// Accepted reports whether the candidate passed validation.
func (o Outcome) Accepted() bool {
	return o.Reason == ""
}

// Accept wraps a candidate in an accepting outcome.
func Accept(candidate *CandidateImage) Outcome {
	return Outcome{Candidate: candidate}
}

// Reject produces a rejecting outcome for the given reason.
func Reject(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// Validate applies the acceptance policy shared by both acquisition channels.
// Rules run in order and short-circuit on the first failure: the candidate
// must be present, fit within MaxFileSizeMB, and declare an image/* type.
// Pure function, safe to call repeatedly.
func Validate(candidate *CandidateImage) Outcome {
	if candidate == nil || len(candidate.Bytes) == 0 {
		return Reject(ReasonMissing)
	}
	if candidate.DeclaredSize > MaxSizeBytes {
		return Reject(ReasonTooLarge)
	}
	if !strings.HasPrefix(candidate.DeclaredType, "image/") {
		return Reject(ReasonWrongType)
	}
	return Accept(candidate)
}

// Message maps a rejection reason to the text shown to the user.
func Message(reason Reason) string {
	switch reason {
	case ReasonMissing:
		return "no image provided"
	case ReasonTooLarge:
		return fmt.Sprintf("image exceeds the %dMB limit", MaxFileSizeMB)
	case ReasonWrongType:
		return "file must be an image"
	case ReasonFetchFail:
		return "could not fetch image from link"
	case ReasonNotAnImage:
		return "link does not point to an image"
	default:
		return string(reason)
	}
}
