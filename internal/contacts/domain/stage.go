// Package domain holds the pipeline vocabulary shared by the transition
// engine, the task lifecycle manager, and the reconciliation sweeper.
package domain

// StageName identifies a position in the sales pipeline. The set is closed:
// behavior branches on these constants only, never on free-form stage text.
type StageName string

const (
	StageNewLead             StageName = "NEW_LEAD"
	StageScheduledInspection StageName = "SCHEDULED_INSPECTION"
	StageRetailProspect      StageName = "RETAIL_PROSPECT"
	StageClaimProspect       StageName = "CLAIM_PROSPECT"
	StageOpenClaim           StageName = "OPEN_CLAIM"
	StageApproved            StageName = "APPROVED"
	StageSeasonal            StageName = "SEASONAL"
	StageNotInterested       StageName = "NOT_INTERESTED"
)

// StageType is the orthogonal classification of a stage, independent of its
// pipeline identity.
type StageType string

const (
	StageTypeActive        StageType = "ACTIVE"
	StageTypeApproved      StageType = "APPROVED"
	StageTypeSeasonal      StageType = "SEASONAL"
	StageTypeNotInterested StageType = "NOT_INTERESTED"
)

// AllStages lists every pipeline stage in display order. Organization
// provisioning seeds stages in this order.
var AllStages = []StageName{
	StageNewLead,
	StageScheduledInspection,
	StageRetailProspect,
	StageClaimProspect,
	StageOpenClaim,
	StageApproved,
	StageSeasonal,
	StageNotInterested,
}

// ParseStage returns the StageName for a stored stage value.
func ParseStage(value string) (StageName, bool) {
	stage := StageName(value)
	switch stage {
	case StageNewLead, StageScheduledInspection, StageRetailProspect,
		StageClaimProspect, StageOpenClaim, StageApproved,
		StageSeasonal, StageNotInterested:
		return stage, true
	}
	return "", false
}

// Type returns the StageType classification for a stage.
func (s StageName) Type() StageType {
	switch s {
	case StageApproved:
		return StageTypeApproved
	case StageSeasonal:
		return StageTypeSeasonal
	case StageNotInterested:
		return StageTypeNotInterested
	default:
		return StageTypeActive
	}
}

// IsTerminal reports whether the stage sits outside the acquisition funnel.
// APPROVED is terminal for acquisition but still drives the job-status
// sub-workflow.
func (s StageName) IsTerminal() bool {
	switch s {
	case StageApproved, StageSeasonal, StageNotInterested:
		return true
	default:
		return false
	}
}

// Label returns the human-readable stage name shown in the pipeline UI.
func (s StageName) Label() string {
	switch s {
	case StageNewLead:
		return "New Lead"
	case StageScheduledInspection:
		return "Scheduled Inspection"
	case StageRetailProspect:
		return "Retail Prospect"
	case StageClaimProspect:
		return "Claim Prospect"
	case StageOpenClaim:
		return "Open Claim"
	case StageApproved:
		return "Approved"
	case StageSeasonal:
		return "Seasonal"
	case StageNotInterested:
		return "Not Interested"
	default:
		return string(s)
	}
}

// JobStatus is the nested state machine inside the APPROVED stage.
type JobStatus string

const (
	JobScheduled  JobStatus = "SCHEDULED"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
)

// ParseJobStatus returns the JobStatus for a stored value.
func ParseJobStatus(value string) (JobStatus, bool) {
	status := JobStatus(value)
	switch status {
	case JobScheduled, JobInProgress, JobCompleted:
		return status, true
	}
	return "", false
}
