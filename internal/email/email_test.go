package email

import (
	"strings"
	"testing"

	"hu-tracker/internal/config"
)

func testService() *Service {
	return NewService(&config.EmailConfig{SMTPFrom: "noreply@fpo.ma"})
}

func TestBuildMessage_HTMLOnly(t *testing.T) {
	msg, err := testService().buildMessage("a@example.ma", "Sujet", "<p>Bonjour</p>")
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	s := string(msg)

	for _, want := range []string{
		"From: noreply@fpo.ma\r\n",
		"To: a@example.ma\r\n",
		"Content-Type: text/html; charset=UTF-8\r\n",
		"\r\n\r\n<p>Bonjour</p>",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q:\n%s", want, s)
		}
	}
}

func TestBuildMessage_WithAttachment(t *testing.T) {
	data := []byte(strings.Repeat("%PDF-1.3 ", 40))
	msg, err := testService().buildMessage("a@example.ma", "Invitation - Soutenance d'Habilitation", "<p>x</p>", Attachment{
		Filename:    "invitation_1_2_3.pdf",
		ContentType: "application/pdf",
		Data:        data,
	})
	if err != nil {
		t.Fatalf("buildMessage() error = %v", err)
	}
	s := string(msg)

	if !strings.Contains(s, "Content-Type: multipart/mixed; boundary=") {
		t.Error("message is not multipart/mixed")
	}
	if !strings.Contains(s, `attachment; filename=invitation_1_2_3.pdf`) {
		t.Errorf("attachment disposition missing:\n%s", s)
	}
	for _, line := range strings.Split(s, "\r\n") {
		if len(line) > 998 {
			t.Fatalf("line longer than SMTP allows: %d", len(line))
		}
	}
}

func TestInvitationTemplateEscapes(t *testing.T) {
	var sb strings.Builder
	err := invitationTemplate.Execute(&sb, Invitation{
		RapporteurName: "<script>",
		CandidateName:  "Amina",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if strings.Contains(sb.String(), "<script>") {
		t.Error("rapporteur name was not escaped")
	}
}

func TestEnabled(t *testing.T) {
	if testService().Enabled() {
		t.Error("Enabled() = true for a zero config")
	}
	if !NewService(&config.EmailConfig{Enabled: true}).Enabled() {
		t.Error("Enabled() = false")
	}
}

func TestReminderTemplates(t *testing.T) {
	var sb strings.Builder
	if err := evaluationReminderTemplate.Execute(&sb, EvaluationReminder{RapporteurName: "Benali", Pending: 3, OldestDays: 41}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(sb.String(), "3 évaluation(s)") || !strings.Contains(sb.String(), "41 jours") {
		t.Errorf("evaluation reminder misses counts: %s", sb.String())
	}

	sb.Reset()
	err := defenseReminderTemplate.Execute(&sb, DefenseReminder{
		CandidateName: "Amina Idrissi",
		DefenseDate:   "20/06/2025",
		Location:      "Amphi A",
		DaysLeft:      7,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{"20/06/2025", "Amphi A", "7 jour(s)"} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("defense reminder misses %q", want)
		}
	}
}
