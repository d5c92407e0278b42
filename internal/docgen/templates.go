package docgen

import (
	"fmt"
	"sort"
	"time"

	"hu-tracker/internal/models"
)

// Defaults used when the request leaves a field empty
const (
	DefaultLocation     = "Salle de conférences, FPO"
	DefaultDiplomaGrade = "Très Honorable"
	toBeConfirmed       = "À confirmer"
)

// AuthorizationKind selects between the two authorization documents
type AuthorizationKind string

const (
	AuthorizationInscription AuthorizationKind = "inscription"
	AuthorizationDefense     AuthorizationKind = "soutenance"
)

// Template returns the layout for the kind, or false for an unknown kind
func (k AuthorizationKind) Template() (Template, bool) {
	switch k {
	case AuthorizationInscription:
		return InscriptionAuthorization, true
	case AuthorizationDefense:
		return DefenseAuthorization, true
	}
	return "", false
}

// Authorization renders an inscription or defense authorization
func (r *Renderer) Authorization(kind AuthorizationKind, c models.Candidate) (*Artifact, error) {
	tpl, ok := kind.Template()
	if !ok {
		return nil, fmt.Errorf("unknown authorization type %q", kind)
	}
	now := r.now()
	title := "Autorisation " + string(kind)
	p := r.newPage(title)
	p.officialHeader(r.inst)

	switch tpl {
	case InscriptionAuthorization:
		p.title("AUTORISATION D'INSCRIPTION", "Habilitation Universitaire")
		p.text("Le Doyen de la " + r.inst.Faculty + ",")
		p.ln(3)
		p.text("Vu la demande d'inscription à l'Habilitation Universitaire présentée par :")
		p.ln(3)
		p.field("Nom et Prénom", c.FullName())
		p.field("Département", orDefault(c.Department, notSpecified))
		p.field("Titre de la thèse", orDefault(c.ThesisTitle, notSpecified))
		p.field("Date de soutenance de thèse", frDate(c.ThesisDate, "Non spécifiée"))
		p.ln(8)
		p.text("Après examen du dossier et avis favorable de la commission scientifique,")
		p.ln(3)
		p.centered("AUTORISE", "B", 13)
		p.ln(3)
		p.text("l'inscription du candidat susmentionné à l'Habilitation Universitaire pour l'année universitaire " + academicYear(now) + ".")
		p.ln(8)
		p.right(fmt.Sprintf("Fait à %s, le %s", r.inst.City, frDate(&now, "")))
		p.signatures("", "Le Doyen")

	case DefenseAuthorization:
		p.title("AUTORISATION DE SOUTENANCE", "Habilitation Universitaire")
		p.text("Suite à l'avis favorable des rapporteurs et de la commission scientifique,")
		p.ln(3)
		p.text("Le candidat :")
		p.ln(3)
		p.centered(c.FullName(), "B", 14)
		p.centered("Département : "+orDefault(c.Department, notSpecified), "", 11)
		p.ln(6)
		p.text("Est autorisé(e) à soutenir son Habilitation Universitaire intitulée :")
		p.ln(3)
		p.centered(`"`+orDefault(c.ThesisTitle, notSpecified)+`"`, "I", 12)
		p.ln(6)
		p.text("Cette autorisation est valable pour une durée de six mois à compter de la date de signature.")
		p.ln(8)
		p.right(fmt.Sprintf("Fait à %s, le %s", r.inst.City, frDate(&now, "")))
		p.signatures("Le Président de l'Université", "Le Doyen de la Faculté")
	}

	return r.artifact(tpl, title, r.filename("autorisation_"+string(kind), c.ID), p)
}

// InvitationData is the snapshot behind a rapporteur invitation letter
type InvitationData struct {
	Rapporteur  models.Rapporteur
	Candidate   models.Candidate
	DefenseDate *time.Time
	DefenseTime string
	Location    string
}

// Invitation renders the letter inviting a rapporteur to the jury
func (r *Renderer) Invitation(d InvitationData) (*Artifact, error) {
	now := r.now()
	title := "Invitation - " + d.Rapporteur.Name
	p := r.newPage(title)
	p.officialHeader(r.inst)

	p.title("LETTRE D'INVITATION", "")
	p.text(d.Rapporteur.Name)
	if d.Rapporteur.Institution != "" {
		p.text(d.Rapporteur.Institution)
	}
	if d.Rapporteur.Email != "" {
		p.text(d.Rapporteur.Email)
	}
	p.ln(6)
	p.bold("Objet : Invitation à participer au jury de soutenance d'Habilitation Universitaire")
	p.ln(4)
	p.text("Madame, Monsieur le Professeur,")
	p.ln(2)
	p.text("J'ai l'honneur de vous inviter à participer en tant que rapporteur au jury de soutenance d'Habilitation Universitaire de :")
	p.ln(3)
	p.centered(d.Candidate.FullName(), "B", 12)
	p.centered("Sur le sujet :", "", 11)
	p.centered(`"`+orDefault(d.Candidate.ThesisTitle, notSpecified)+`"`, "I", 11)
	p.ln(5)
	p.text("La soutenance aura lieu :")
	p.field("Date", frDate(d.DefenseDate, "À déterminer"))
	p.field("Heure", orDefault(d.DefenseTime, "À déterminer"))
	p.field("Lieu", orDefault(d.Location, DefaultLocation))
	p.ln(5)
	p.text("Nous serions très honorés de votre présence et de votre contribution à l'évaluation de ce travail.")
	p.ln(2)
	p.text("Dans l'attente de votre réponse, veuillez agréer, Madame, Monsieur le Professeur, l'expression de mes salutations distinguées.")
	p.ln(6)
	p.right(fmt.Sprintf("%s, le %s", r.inst.City, frDate(&now, "")))
	p.signatures("", "Le Doyen")

	return r.artifact(InvitationLetter, title, r.filename("invitation", d.Rapporteur.ID, d.Candidate.ID), p)
}

// Decision is one line of the decisions recorded in committee minutes
type Decision struct {
	Candidate string `json:"candidate"`
	Decision  string `json:"decision"`
	Remarks   string `json:"remarks"`
}

// MinutesData is the snapshot behind committee minutes
type MinutesData struct {
	Meeting   models.Meeting
	Members   []models.CommissionMember
	Decisions []Decision
}

// maxMinutesSignatures limits the signature grid to three rows of two
const maxMinutesSignatures = 6

// Minutes renders the procès-verbal of a committee meeting
func (r *Renderer) Minutes(d MinutesData) (*Artifact, error) {
	m := d.Meeting
	title := "PV Commission - " + frDate(m.Date, "")
	p := r.newPage(title)
	p.officialHeader(r.inst)

	p.title("PROCÈS-VERBAL", "Commission Scientifique")
	p.field("Date", frDate(m.Date, toBeConfirmed))
	p.field("Heure", orDefault(m.Time, toBeConfirmed))
	p.field("Type", orDefault(m.Type, "Réunion ordinaire"))

	p.section("Membres présents")
	if len(d.Members) == 0 {
		p.text("Aucun membre enregistré")
	}
	for _, mem := range d.Members {
		p.bullet(fmt.Sprintf("%s - %s (%s)", mem.Name, mem.Role, orDefault(mem.Department, notSpecified)))
	}

	p.section("Ordre du jour")
	p.text("1. Examen des dossiers de candidature")
	p.text("2. Désignation des rapporteurs")
	p.text("3. Autorisation de soutenance")
	p.text("4. Questions diverses")

	p.section("Décisions prises")
	if len(d.Decisions) == 0 {
		p.text("Aucune décision enregistrée")
	}
	for i, dec := range d.Decisions {
		p.bold(fmt.Sprintf("Dossier %d : %s", i+1, dec.Candidate))
		p.field("Décision", dec.Decision)
		p.field("Observations", orDefault(dec.Remarks, "Aucune"))
		p.ln(2)
	}
	if m.Minutes != "" {
		p.section("Compte rendu")
		p.text(m.Minutes)
	}

	p.section("Signatures des membres")
	signers := d.Members
	if len(signers) > maxMinutesSignatures {
		signers = signers[:maxMinutesSignatures]
	}
	for i := 0; i < len(signers); i += 2 {
		names := []string{signers[i].Name}
		if i+1 < len(signers) {
			names = append(names, signers[i+1].Name)
		}
		p.signatures(names...)
	}

	return r.artifact(CommissionMinutes, title, r.filename("pv_commission", m.ID), p)
}

// ConvocationData is the snapshot behind a defense convocation
type ConvocationData struct {
	Candidate models.Candidate
	Date      *time.Time
	Time      string
	Location  string
}

// Convocation renders the candidate's convocation to the defense
func (r *Renderer) Convocation(d ConvocationData) (*Artifact, error) {
	now := r.now()
	title := "Convocation de soutenance"
	p := r.newPage(title)
	p.officialHeader(r.inst)

	p.title("CONVOCATION", "Soutenance d'Habilitation Universitaire")
	p.text(d.Candidate.FullName())
	p.text(d.Candidate.Email)
	p.ln(6)
	p.text("Vous êtes convoqué(e) pour la soutenance de votre Habilitation Universitaire qui aura lieu :")
	p.ln(2)
	p.bold("Date : " + frDate(d.Date, toBeConfirmed))
	p.bold("Heure : " + orDefault(d.Time, toBeConfirmed))
	p.bold("Lieu : " + orDefault(d.Location, DefaultLocation))
	p.ln(5)
	p.text("Vous devez vous présenter 30 minutes avant l'heure prévue avec :")
	p.bullet("Une copie de votre thèse d'habilitation")
	p.bullet("Votre présentation (support numérique)")
	p.bullet("Une pièce d'identité")
	p.ln(5)
	p.text("Nous vous souhaitons plein succès dans cette étape importante.")
	p.ln(6)
	p.right(fmt.Sprintf("%s, le %s", r.inst.City, frDate(&now, "")))
	p.signatures("", "Le Doyen")

	return r.artifact(Convocation, title, r.filename("convocation", d.Candidate.ID), p)
}

// DiplomaData is the snapshot behind a diploma
type DiplomaData struct {
	Candidate   models.Candidate
	DefenseDate *time.Time
	Grade       string
}

// Diploma renders the habilitation diploma on a framed page
func (r *Renderer) Diploma(d DiplomaData) (*Artifact, error) {
	now := r.now()
	title := "Diplôme HU"
	p := r.newPage(title)
	pdf := p.pdf
	w, h := pdf.GetPageSize()

	pdf.SetFillColor(254, 243, 199)
	pdf.Rect(0, 0, w, h, "F")
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(217, 119, 6)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(245, 158, 11)
	pdf.Rect(14, 14, w-28, h-28, "D")
	pdf.SetDrawColor(0, 0, 0)

	pdf.SetTextColor(124, 45, 18)
	pdf.SetY(30)
	p.centered(r.inst.Country, "B", 18)
	p.centered(r.inst.University, "B", 15)
	p.centered(r.inst.Faculty, "B", 13)

	pdf.SetTextColor(153, 27, 27)
	pdf.SetY(75)
	p.centered("DIPLÔME", "B", 32)
	p.ln(2)
	p.centered("D'HABILITATION UNIVERSITAIRE", "B", 20)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(120)
	p.centered("Nous, Doyen de la "+r.inst.Faculty+",", "", 13)
	p.centered("certifions que", "", 13)
	p.ln(6)
	p.centered(d.Candidate.FullName(), "B", 20)
	p.ln(6)
	p.centered("a soutenu avec succès son Habilitation Universitaire", "", 13)
	p.centered("le "+frDate(d.DefenseDate, "Date non spécifiée"), "", 13)
	p.centered("avec la mention : "+orDefault(d.Grade, DefaultDiplomaGrade), "", 13)
	p.ln(8)
	p.centered("En foi de quoi, nous lui délivrons le présent diplôme", "", 13)
	p.centered("pour servir et valoir ce que de droit.", "", 13)
	p.ln(8)
	p.centered(fmt.Sprintf("Fait à %s, le %s", r.inst.City, frDate(&now, "")), "", 12)
	p.signatures("Le Président de l'Université", "Le Doyen de la Faculté")

	return r.artifact(Diploma, title, r.filename("diplome_hu", d.Candidate.ID), p)
}

// SummaryData is the snapshot behind a complete candidate file
type SummaryData struct {
	Candidate    models.Candidate
	Applications []models.Application
	Documents    []models.Document
}

// Summary renders the complete file of a candidate
func (r *Renderer) Summary(d SummaryData) (*Artifact, error) {
	c := d.Candidate
	title := "Dossier complet - " + c.FullName()
	p := r.newPage(title)
	p.officialHeader(r.inst)

	p.title("DOSSIER COMPLET DU CANDIDAT", "")

	p.section("1. INFORMATIONS PERSONNELLES")
	p.field("Nom complet", c.FullName())
	p.field("Email", c.Email)
	p.field("Téléphone", orDefault(c.Phone, notSpecified))
	p.field("Adresse", orDefault(c.Address, "Non spécifiée"))
	p.field("Département", orDefault(c.Department, notSpecified))

	p.section("2. INFORMATIONS ACADÉMIQUES")
	p.field("Titre de thèse", orDefault(c.ThesisTitle, notSpecified))
	p.field("Date de soutenance", frDate(c.ThesisDate, "Non spécifiée"))
	p.field("Directeur de thèse", orDefault(c.ThesisSupervisor, notSpecified))

	if len(d.Applications) > 0 {
		p.section("3. HISTORIQUE DES CANDIDATURES")
		for _, app := range d.Applications {
			submitted := app.SubmissionDate
			if submitted == nil {
				submitted = &app.CreatedAt
			}
			p.bold(fmt.Sprintf("Candidature #%d :", app.ID))
			p.bullet("Date : " + frDate(submitted, "N/A"))
			p.bullet("Statut : " + app.Status.Label())
			p.bullet("Étape actuelle : " + app.CurrentStage.Label())
			p.bullet(fmt.Sprintf("Progression : %d%%", app.Progress))
			p.ln(2)
		}
	}

	if len(d.Documents) > 0 {
		p.pdf.AddPage()
		p.section("4. DOCUMENTS SOUMIS")
		byCategory := make(map[models.DocumentCategory][]models.Document)
		var categories []models.DocumentCategory
		for _, doc := range d.Documents {
			if _, ok := byCategory[doc.Category]; !ok {
				categories = append(categories, doc.Category)
			}
			byCategory[doc.Category] = append(byCategory[doc.Category], doc)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, cat := range categories {
			p.bold(cat.Label() + " :")
			for _, doc := range byCategory[cat] {
				uploaded := doc.UploadedAt
				p.bullet(fmt.Sprintf("%s (%s)", doc.Name, frDate(&uploaded, "N/A")))
			}
			p.ln(2)
		}
	}

	p.section("5. RÉSUMÉ")
	created := c.CreatedAt
	p.text("Statut actuel : " + orDefault(c.Status, models.CandidatePending))
	p.text("Date d'inscription : " + frDate(&created, "N/A"))
	p.text(fmt.Sprintf("Nombre de candidatures : %d", len(d.Applications)))
	p.text(fmt.Sprintf("Nombre de documents : %d", len(d.Documents)))

	return r.artifact(CandidateSummary, title, r.filename("dossier_complet", c.ID), p)
}

// EvaluationReportData is the snapshot behind the evaluation report of an application
type EvaluationReportData struct {
	Application models.ApplicationWithCandidate
	Reports     []models.ReportWithDetails
	Evaluations []models.Evaluation
}

// EvaluationReport renders the rapporteurs' reports and evaluations of an application
func (r *Renderer) EvaluationReport(d EvaluationReportData) (*Artifact, error) {
	now := r.now()
	app := d.Application
	title := fmt.Sprintf("Rapport d'évaluation - candidature %d", app.ID)
	p := r.newPage(title)
	p.officialHeader(r.inst)

	p.title("Rapport d'Évaluation HU", "")
	p.right("Généré le : " + frDate(&now, ""))

	p.section("Candidat")
	p.field("Nom", app.FirstName+" "+app.LastName)
	p.field("Département", orDefault(app.Department, notSpecified))
	p.field("Titre de thèse", orDefault(app.ThesisTitle, notSpecified))
	p.field("Étape actuelle", app.CurrentStage.Label())
	p.field("Progression", fmt.Sprintf("%d%%", app.Progress))

	p.section("Évaluations des Rapporteurs")
	if len(d.Reports) == 0 {
		p.text("Aucun rapport reçu")
	}
	for i, rep := range d.Reports {
		p.bold(fmt.Sprintf("Rapporteur %d : %s", i+1, orDefault(rep.RapporteurName, "Inconnu")))
		p.field("Institution", orDefault(rep.Institution, notSpecified))
		p.field("Date", frDate(rep.SubmissionDate, "N/A"))
		p.field("Recommandation", rep.Recommendation.Label())
		if rep.Content != "" {
			p.text(rep.Content)
		}
		p.ln(3)
	}

	if len(d.Evaluations) > 0 {
		p.section("Notes")
		for _, ev := range d.Evaluations {
			score := "-"
			if ev.Score != nil {
				score = fmt.Sprintf("%d/100", *ev.Score)
			}
			p.bullet(fmt.Sprintf("%s : %s", ev.EvaluatorName, score))
		}
	}

	return r.artifact(EvaluationReport, title, r.filename("rapport_evaluation", app.ID), p)
}
