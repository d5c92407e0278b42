package workflow

import "hu-tracker/internal/models"

// stageTable lists the stages in workflow order with their canonical progress.
var stageTable = []struct {
	stage    models.Stage
	progress int
}{
	{models.StageDocumentVerification, 0},
	{models.StageCommitteeReview, 25},
	{models.StageRapporteurEvaluation, 50},
	{models.StageDefenseAuthorization, 70},
	{models.StageDefense, 80},
	{models.StageDiploma, 100},
}

// Stages returns the stages in workflow order
func Stages() []models.Stage {
	out := make([]models.Stage, len(stageTable))
	for i, s := range stageTable {
		out[i] = s.stage
	}
	return out
}

// Progress returns the canonical progress of a stage, or -1 for an unknown stage
func Progress(stage models.Stage) int {
	for _, s := range stageTable {
		if s.stage == stage {
			return s.progress
		}
	}
	return -1
}

func stageIndex(stage models.Stage) int {
	for i, s := range stageTable {
		if s.stage == stage {
			return i
		}
	}
	return -1
}

// Consistent reports whether the application's progress matches its stage
func Consistent(app *models.Application) bool {
	p := Progress(app.CurrentStage)
	return p >= 0 && p == app.Progress
}

// advance moves app into stage unless that would move it backwards.
// Entering Diploma approves the application; entering any other stage
// starts a pending one. Returns true when app was modified.
func advance(app *models.Application, stage models.Stage) bool {
	target := stageIndex(stage)
	if target < 0 || target < stageIndex(app.CurrentStage) {
		return false
	}

	status := app.Status
	switch {
	case stage == models.StageDiploma:
		status = models.ApplicationApproved
	case stage != models.StageDocumentVerification && status == models.ApplicationPending:
		status = models.ApplicationInProgress
	}

	progress := Progress(stage)
	if app.CurrentStage == stage && app.Progress == progress && app.Status == status {
		return false
	}

	app.CurrentStage = stage
	app.Progress = progress
	app.Status = status
	return true
}
