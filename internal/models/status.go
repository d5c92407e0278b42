package models

// Stage is a named point in an application's lifecycle
type Stage string

const (
	StageDocumentVerification Stage = "document_verification"
	StageCommitteeReview      Stage = "committee_review"
	StageRapporteurEvaluation Stage = "rapporteur_evaluation"
	StageDefenseAuthorization Stage = "defense_authorization"
	StageDefense              Stage = "defense"
	StageDiploma              Stage = "diploma"
)

var stageLabels = map[Stage]string{
	StageDocumentVerification: "Vérification Documents",
	StageCommitteeReview:      "Examen Commission",
	StageRapporteurEvaluation: "Évaluation Rapporteurs",
	StageDefenseAuthorization: "Autorisation Soutenance",
	StageDefense:              "Soutenance",
	StageDiploma:              "Diplôme",
}

// Valid reports whether s is one of the six known stages
func (s Stage) Valid() bool {
	_, ok := stageLabels[s]
	return ok
}

// Label returns the French label used on generated documents
func (s Stage) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// ApplicationStatus is the decision status of an application
type ApplicationStatus string

const (
	ApplicationPending    ApplicationStatus = "pending"
	ApplicationInProgress ApplicationStatus = "in_progress"
	ApplicationApproved   ApplicationStatus = "approved"
	ApplicationRejected   ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationInProgress, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

func (s ApplicationStatus) Label() string {
	switch s {
	case ApplicationPending:
		return "En attente"
	case ApplicationInProgress:
		return "En cours"
	case ApplicationApproved:
		return "Approuvé"
	case ApplicationRejected:
		return "Rejeté"
	}
	return string(s)
}

// EvaluationStatus is the state of a rapporteur evaluation
type EvaluationStatus string

const (
	EvaluationInProgress      EvaluationStatus = "in_progress"
	EvaluationReportSubmitted EvaluationStatus = "report_submitted"
	EvaluationCompleted       EvaluationStatus = "completed"
)

func (s EvaluationStatus) Valid() bool {
	switch s {
	case EvaluationInProgress, EvaluationReportSubmitted, EvaluationCompleted:
		return true
	}
	return false
}

// Terminal reports whether the evaluation counts as finished for the
// defense authorization check
func (s EvaluationStatus) Terminal() bool {
	return s == EvaluationCompleted || s == EvaluationReportSubmitted
}

// Recommendation is a rapporteur's conclusion
type Recommendation string

const (
	RecommendationFavorable                 Recommendation = "favorable"
	RecommendationFavorableWithReservations Recommendation = "favorable_with_reservations"
	RecommendationUnfavorable               Recommendation = "unfavorable"
)

func (r Recommendation) Valid() bool {
	switch r {
	case RecommendationFavorable, RecommendationFavorableWithReservations, RecommendationUnfavorable:
		return true
	}
	return false
}

func (r Recommendation) Label() string {
	switch r {
	case RecommendationFavorable:
		return "Favorable"
	case RecommendationFavorableWithReservations:
		return "Favorable avec réserves"
	case RecommendationUnfavorable:
		return "Défavorable"
	}
	return string(r)
}

// DefenseStatus is the state of a defense event
type DefenseStatus string

const (
	DefenseScheduled  DefenseStatus = "scheduled"
	DefenseInProgress DefenseStatus = "in_progress"
	DefenseCompleted  DefenseStatus = "completed"
	DefensePostponed  DefenseStatus = "postponed"
	DefenseCancelled  DefenseStatus = "cancelled"
)

func (s DefenseStatus) Valid() bool {
	switch s {
	case DefenseScheduled, DefenseInProgress, DefenseCompleted, DefensePostponed, DefenseCancelled:
		return true
	}
	return false
}

// Active reports whether the defense blocks scheduling another one
func (s DefenseStatus) Active() bool {
	return s != DefenseCancelled
}

// MeetingStatus is the state of a committee meeting
type MeetingStatus string

const (
	MeetingPlanned    MeetingStatus = "planned"
	MeetingInProgress MeetingStatus = "in_progress"
	MeetingCompleted  MeetingStatus = "completed"
	MeetingCancelled  MeetingStatus = "cancelled"
)

func (s MeetingStatus) Valid() bool {
	switch s {
	case MeetingPlanned, MeetingInProgress, MeetingCompleted, MeetingCancelled:
		return true
	}
	return false
}

// DocumentCategory tags a stored document
type DocumentCategory string

const (
	CategoryAuthorization DocumentCategory = "authorization"
	CategoryReport        DocumentCategory = "report"
	CategoryPV            DocumentCategory = "pv"
	CategoryDiploma       DocumentCategory = "diploma"
	CategoryInvitation    DocumentCategory = "invitation"
	CategoryConvocation   DocumentCategory = "convocation"
	CategoryOther         DocumentCategory = "other"
)

// Label returns the French heading used in candidate summaries
func (c DocumentCategory) Label() string {
	switch c {
	case CategoryAuthorization:
		return "Autorisation"
	case CategoryReport:
		return "Rapport"
	case CategoryPV:
		return "PV"
	case CategoryDiploma:
		return "Diplôme"
	case CategoryInvitation:
		return "Invitation"
	case CategoryConvocation:
		return "Convocation"
	}
	return "Autre"
}

// Candidate status labels. The candidate status is a free label, these are the
// values the tracker itself writes.
const (
	CandidatePending    = "pending"
	CandidateInProgress = "in_progress"
	CandidateCompleted  = "completed"
)
