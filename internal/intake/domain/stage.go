// Package domain provides core business rules for the intake bounded context.
package domain

// Stage is the single source of truth for what input a conversation
// expects next.
type Stage int

const (
	StageAwaitingName Stage = iota
	StageChoosing
	StageAwaitingUpload
	StageCollectingMetadata
	StageAwaitingConfirmation
	StageAwaitingSubmit
	StageTerminated
)

var stageNames = map[Stage]string{
	StageAwaitingName:         "awaiting_name",
	StageChoosing:             "choosing",
	StageAwaitingUpload:       "awaiting_upload",
	StageCollectingMetadata:   "collecting_metadata",
	StageAwaitingConfirmation: "awaiting_confirmation",
	StageAwaitingSubmit:       "awaiting_submit",
	StageTerminated:           "terminated",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Confirmation is the tri-state flag gating final submission.
type Confirmation int

const (
	ConfirmationUnset Confirmation = iota
	ConfirmationConfirmed
	ConfirmationDeclined
)
