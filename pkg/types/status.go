package types

import (
	"regexp"
	"strings"
)

// ReviewStatus is the workflow status of a detail record. Exactly one status
// holds at a time; the legacy mutually-exclusive flag columns are generated
// from it at the storage boundary, never updated by hand.
type ReviewStatus string

const (
	StatusDraft               ReviewStatus = "draft"
	StatusNeedsAttention      ReviewStatus = "needs_attention"
	StatusAttentionToTimeline ReviewStatus = "attention_to_timeline"
	StatusConfirmationNeeded  ReviewStatus = "confirmation_needed"
	StatusNeedsOLAReview      ReviewStatus = "needs_ola_review"
	StatusReviewedByOLA       ReviewStatus = "reviewed_by_ola"
	StatusApproved            ReviewStatus = "approved"
	StatusFinalized           ReviewStatus = "finalized"
)

// ReviewCategory is the coarse category derived from a ReviewStatus.
type ReviewCategory string

const (
	CategoryNeedsReview ReviewCategory = "needs_review"
	CategoryApproved    ReviewCategory = "approved"
)

var statusCategories = map[ReviewStatus]ReviewCategory{
	StatusDraft:               CategoryNeedsReview,
	StatusNeedsAttention:      CategoryNeedsReview,
	StatusNeedsOLAReview:      CategoryNeedsReview,
	StatusAttentionToTimeline: CategoryApproved,
	StatusConfirmationNeeded:  CategoryApproved,
	StatusReviewedByOLA:       CategoryApproved,
	StatusApproved:            CategoryApproved,
	StatusFinalized:           CategoryApproved,
}

// Valid reports whether s is a recognized status value.
func (s ReviewStatus) Valid() bool {
	_, ok := statusCategories[s]
	return ok
}

// Category returns the derived review category for s.
func (s ReviewStatus) Category() ReviewCategory {
	return statusCategories[s]
}

// StatusFlags mirrors the flag columns kept in the detail tables for the
// dashboard's benefit. Exactly one field is true for a valid status.
type StatusFlags struct {
	IsDraft             bool
	NeedsAttention      bool
	AttentionToTimeline bool
	ConfirmationNeeded  bool
	NeedsOLAReview      bool
	ReviewedByOLA       bool
	IsApproved          bool
	Finalized           bool
}

// Flags expands s into its storage flag columns.
func (s ReviewStatus) Flags() StatusFlags {
	switch s {
	case StatusDraft:
		return StatusFlags{IsDraft: true}
	case StatusNeedsAttention:
		return StatusFlags{NeedsAttention: true}
	case StatusAttentionToTimeline:
		return StatusFlags{AttentionToTimeline: true}
	case StatusConfirmationNeeded:
		return StatusFlags{ConfirmationNeeded: true}
	case StatusNeedsOLAReview:
		return StatusFlags{NeedsOLAReview: true}
	case StatusReviewedByOLA:
		return StatusFlags{ReviewedByOLA: true}
	case StatusApproved:
		return StatusFlags{IsApproved: true}
	case StatusFinalized:
		return StatusFlags{Finalized: true}
	default:
		return StatusFlags{}
	}
}

// StatusFromFlags collapses storage flags back to a single status. Draft wins
// when no flag is set, matching how legacy rows were seeded.
func StatusFromFlags(f StatusFlags) ReviewStatus {
	switch {
	case f.Finalized:
		return StatusFinalized
	case f.IsApproved:
		return StatusApproved
	case f.ReviewedByOLA:
		return StatusReviewedByOLA
	case f.ConfirmationNeeded:
		return StatusConfirmationNeeded
	case f.AttentionToTimeline:
		return StatusAttentionToTimeline
	case f.NeedsOLAReview:
		return StatusNeedsOLAReview
	case f.NeedsAttention:
		return StatusNeedsAttention
	default:
		return StatusDraft
	}
}

// statusLabels maps normalized free-text labels from the tracking spreadsheet
// to internal statuses. Labels that signal "still being worked on" collapse
// to draft.
var statusLabels = map[string]ReviewStatus{
	"draft":                 StatusDraft,
	"no submission":         StatusDraft,
	"in progress":           StatusDraft,
	"in review":             StatusDraft,
	"needs attention":       StatusNeedsAttention,
	"attention to timeline": StatusAttentionToTimeline,
	"confirmation needed":   StatusConfirmationNeeded,
	"needs ola review":      StatusNeedsOLAReview,
	"reviewed by ola":       StatusReviewedByOLA,
	"approved":              StatusApproved,
	"finalized":             StatusFinalized,
}

var spaceRun = regexp.MustCompile(`\s+`)

// ParseReviewLabel maps a free-text status label to a ReviewStatus. Unmapped
// or empty labels return ok=false; the caller treats that as "no value
// extracted", never as an error.
func ParseReviewLabel(raw string) (ReviewStatus, bool) {
	norm := strings.ToLower(strings.TrimSpace(spaceRun.ReplaceAllString(raw, " ")))
	if norm == "" {
		return "", false
	}
	s, ok := statusLabels[norm]
	return s, ok
}
