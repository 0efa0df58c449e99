package workflow

// StageInfo describes one active stage
type StageInfo struct {
	Stage  Stage
	Status string // status message shown when the stage is entered
	Fatal  bool   // false when a failure is recorded and the run continues
}

// Stages lists the active stages in execution order
var Stages = []StageInfo{
	{Stage: StageFetchingBase, Status: "Fetching base resume...", Fatal: true},
	{Stage: StageCustomizing, Status: "Customizing resume for job description...", Fatal: true},
	{Stage: StageSubmitting, Status: "Sending resume to tracking system...", Fatal: false},
	{Stage: StageRenderingResume, Status: "Generating PDF file...", Fatal: true},
	{Stage: StageRenderingCoverLetterText, Status: "Generating Cover Letter...", Fatal: true},
	{Stage: StageRenderingCoverLetterPDF, Status: "Generating Cover Letter PDF...", Fatal: true},
}

// Status messages outside the per-stage ones
const (
	StatusStarting         = "Generating customized resume..."
	StatusTrackingSent     = "Resume successfully sent to external system"
	StatusTrackingNotSent  = "Customized resume generated but not sent to external system"
	StatusTrackingSkipped  = "Tracking system not configured, skipping submission"
	StatusDownloadComplete = "Download complete!"
	StatusSucceeded        = "Resume and Cover Letter Generated!"
	statusFailurePrefix    = "Error generating customized resume: "
)

// LookupStage returns the registry entry for s
func LookupStage(s Stage) (StageInfo, bool) {
	for _, info := range Stages {
		if info.Stage == s {
			return info, true
		}
	}
	return StageInfo{}, false
}
