package email

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"sort"
	"strings"

	"hu-tracker/internal/config"
)

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// Enabled reports whether emails are actually sent
func (s *Service) Enabled() bool {
	return s.config.Enabled
}

// Attachment is a file sent along with an email
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Invitation holds what a rapporteur invitation email shows
type Invitation struct {
	RapporteurName string
	CandidateName  string
	ThesisTitle    string
	DefenseDate    string
	DefenseTime    string
	Location       string
	Faculty        string
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invitation</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1e40af;">Invitation au jury de soutenance</h2>
        <p>Madame, Monsieur le Professeur {{.RapporteurName}},</p>
        <p>J'ai l'honneur de vous inviter à participer en tant que rapporteur au jury de soutenance d'Habilitation Universitaire de <strong>{{.CandidateName}}</strong>.</p>
        <p>Sujet : <em>{{.ThesisTitle}}</em></p>
        <div style="background-color: #e3f2fd; border-left: 4px solid #2196f3; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Date :</strong> {{.DefenseDate}}</p>
            <p style="margin: 5px 0;"><strong>Heure :</strong> {{.DefenseTime}}</p>
            <p style="margin: 5px 0;"><strong>Lieu :</strong> {{.Location}}</p>
        </div>
        <p>Vous trouverez la lettre d'invitation officielle en pièce jointe.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">{{.Faculty}} - message automatique, merci de ne pas répondre.</p>
    </div>
</body>
</html>
`))

// SendRapporteurInvitation emails the invitation letter to a rapporteur
func (s *Service) SendRapporteurInvitation(to string, inv Invitation, letter *Attachment) error {
	var body bytes.Buffer
	if err := invitationTemplate.Execute(&body, inv); err != nil {
		return fmt.Errorf("failed to render invitation email: %w", err)
	}

	subject := "Invitation - Soutenance d'Habilitation Universitaire de " + inv.CandidateName
	var attachments []Attachment
	if letter != nil {
		attachments = append(attachments, *letter)
	}
	return s.sendEmail(to, subject, body.String(), attachments...)
}

// EvaluationReminder lists what a rapporteur still has to evaluate
type EvaluationReminder struct {
	RapporteurName string
	Pending        int
	OldestDays     int
	Faculty        string
}

var evaluationReminderTemplate = template.Must(template.New("evaluation_reminder").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Rappel</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1e40af;">Rappel : évaluations en attente</h2>
        <p>Madame, Monsieur le Professeur {{.RapporteurName}},</p>
        <p>{{.Pending}} évaluation(s) de dossier d'Habilitation Universitaire vous ont été confiées et n'ont pas encore reçu de rapport. La plus ancienne date de {{.OldestDays}} jours.</p>
        <p>Nous vous remercions de bien vouloir nous faire parvenir vos rapports dans les meilleurs délais.</p>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">{{.Faculty}} - message automatique, merci de ne pas répondre.</p>
    </div>
</body>
</html>
`))

// SendEvaluationReminder reminds a rapporteur of open evaluations
func (s *Service) SendEvaluationReminder(to string, rem EvaluationReminder) error {
	var body bytes.Buffer
	if err := evaluationReminderTemplate.Execute(&body, rem); err != nil {
		return fmt.Errorf("failed to render evaluation reminder: %w", err)
	}
	return s.sendEmail(to, "Rappel - Évaluations d'Habilitation Universitaire en attente", body.String())
}

// DefenseReminder announces an upcoming defense to the candidate
type DefenseReminder struct {
	CandidateName string
	ThesisTitle   string
	DefenseDate   string
	DefenseTime   string
	Location      string
	DaysLeft      int
	Faculty       string
}

var defenseReminderTemplate = template.Must(template.New("defense_reminder").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Soutenance</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #1e40af;">Votre soutenance approche</h2>
        <p>{{.CandidateName}},</p>
        <p>Votre soutenance d'Habilitation Universitaire aura lieu dans {{.DaysLeft}} jour(s).</p>
        <p>Sujet : <em>{{.ThesisTitle}}</em></p>
        <div style="background-color: #e3f2fd; border-left: 4px solid #2196f3; padding: 15px; margin: 20px 0;">
            <p style="margin: 5px 0;"><strong>Date :</strong> {{.DefenseDate}}</p>
            <p style="margin: 5px 0;"><strong>Heure :</strong> {{.DefenseTime}}</p>
            <p style="margin: 5px 0;"><strong>Lieu :</strong> {{.Location}}</p>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">{{.Faculty}} - message automatique, merci de ne pas répondre.</p>
    </div>
</body>
</html>
`))

// SendDefenseReminder sends a defense notice to the candidate
func (s *Service) SendDefenseReminder(to string, rem DefenseReminder) error {
	var body bytes.Buffer
	if err := defenseReminderTemplate.Execute(&body, rem); err != nil {
		return fmt.Errorf("failed to render defense reminder: %w", err)
	}
	return s.sendEmail(to, "Rappel - Soutenance d'Habilitation Universitaire", body.String())
}

// buildMessage assembles a MIME message. Without attachments the body is sent
// as a single text/html part.
func (s *Service) buildMessage(to, subject, body string, attachments ...Attachment) ([]byte, error) {
	headers := map[string]string{
		"From":         s.config.SMTPFrom,
		"To":           to,
		"Subject":      mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version": "1.0",
	}

	var message bytes.Buffer
	if len(attachments) == 0 {
		headers["Content-Type"] = "text/html; charset=UTF-8"
		writeHeaders(&message, headers)
		message.WriteString(body)
		return message.Bytes(), nil
	}

	var parts bytes.Buffer
	mw := multipart.NewWriter(&parts)
	headers["Content-Type"] = "multipart/mixed; boundary=" + mw.Boundary()

	html, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(html, body); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {a.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename})},
		})
		if err != nil {
			return nil, err
		}
		if err := writeBase64(part, a.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	writeHeaders(&message, headers)
	message.Write(parts.Bytes())
	return message.Bytes(), nil
}

func writeHeaders(buf *bytes.Buffer, headers map[string]string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s: %s\r\n", k, headers[k])
	}
	buf.WriteString("\r\n")
}

// writeBase64 wraps lines at 76 characters as RFC 2045 requires
func writeBase64(w io.Writer, data []byte) error {
	encoded := base64.StdEncoding.EncodeToString(data)
	var sb strings.Builder
	for len(encoded) > 76 {
		sb.WriteString(encoded[:76])
		sb.WriteString("\r\n")
		encoded = encoded[76:]
	}
	sb.WriteString(encoded)
	sb.WriteString("\r\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string, attachments ...Attachment) error {
	message, err := s.buildMessage(to, subject, body, attachments...)
	if err != nil {
		return fmt.Errorf("failed to build message: %w", err)
	}

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	slog.Debug("Attempting to connect to SMTP server", "address", addr)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		slog.Error("Failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		conn.Close()
		slog.Error("Failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	// closes conn as well
	defer client.Close()

	// Mailpit and similar dev servers accept mail without AUTH
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		if err := client.Auth(auth); err != nil {
			slog.Warn("SMTP authentication failed, sending without it", "error", err)
		}
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	if _, err := wc.Write(message); err != nil {
		wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %w", err)
	}
	if err := client.Quit(); err != nil {
		slog.Warn("SMTP QUIT failed", "error", err)
	}

	slog.Info("Email sent successfully", "to", to)
	return nil
}
