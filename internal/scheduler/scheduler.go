// Package scheduler runs the periodic reminder jobs: rapporteurs with
// evaluations left open too long, and candidates whose defense is near.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hu-tracker/internal/config"
	"hu-tracker/internal/email"
	"hu-tracker/internal/models"
	"hu-tracker/internal/repository"
)

const taskTimeout = 5 * time.Minute

// EvaluationLister lists evaluations
type EvaluationLister interface {
	List(ctx context.Context, f repository.EvaluationFilter) ([]models.Evaluation, error)
}

// RapporteurGetter reads one rapporteur
type RapporteurGetter interface {
	GetByID(ctx context.Context, id uint) (*models.Rapporteur, error)
}

// DefenseLister lists scheduled defenses from a date on
type DefenseLister interface {
	Upcoming(ctx context.Context, from time.Time) ([]models.DefenseWithCandidate, error)
}

// CandidateGetter reads one candidate
type CandidateGetter interface {
	GetByID(ctx context.Context, id uint) (*models.Candidate, error)
}

// Mailer sends the reminder emails
type Mailer interface {
	Enabled() bool
	SendEvaluationReminder(to string, rem email.EvaluationReminder) error
	SendDefenseReminder(to string, rem email.DefenseReminder) error
}

// Sources are the reads the jobs need
type Sources struct {
	Evaluations EvaluationLister
	Rapporteurs RapporteurGetter
	Defenses    DefenseLister
	Candidates  CandidateGetter
}

// NewSources reads from the repositories over db
func NewSources(db repository.DBTX) Sources {
	return Sources{
		Evaluations: repository.NewEvaluationRepository(db),
		Rapporteurs: repository.NewRapporteurRepository(db),
		Defenses:    repository.NewDefenseRepository(db),
		Candidates:  repository.NewCandidateRepository(db),
	}
}

// Scheduler handles periodic tasks
type Scheduler struct {
	src     Sources
	mailer  Mailer
	config  *config.SchedulerConfig
	faculty string
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(src Sources, mailer Mailer, cfg *config.SchedulerConfig, faculty string) *Scheduler {
	return &Scheduler{
		src:     src,
		mailer:  mailer,
		config:  cfg,
		faculty: faculty,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Start starts all enabled tasks. Nothing runs while email is disabled.
func (s *Scheduler) Start() error {
	if !s.mailer.Enabled() {
		slog.Info("Email disabled, reminder scheduler not started")
		return nil
	}

	tasks := []struct {
		name    string
		enabled bool
		cron    string
		run     func(context.Context) (int, error)
	}{
		{"evaluation_reminders", s.config.EnableEvaluationReminders, s.config.EvaluationReminderCron, s.SendEvaluationReminders},
		{"defense_reminders", s.config.EnableDefenseReminders, s.config.DefenseReminderCron, s.SendDefenseReminders},
	}

	for _, t := range tasks {
		if !t.enabled {
			continue
		}
		sched, err := parseCron(t.cron)
		if err != nil {
			return fmt.Errorf("task %s: %w", t.name, err)
		}
		s.wg.Add(1)
		go s.loop(t.name, sched, t.run)
	}

	slog.Info("Scheduler started",
		"evaluation_reminders_enabled", s.config.EnableEvaluationReminders,
		"defense_reminders_enabled", s.config.EnableDefenseReminders)
	return nil
}

// Stop stops the scheduler and waits for a running task to finish
func (s *Scheduler) Stop() {
	slog.Info("Stopping scheduler")
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) loop(name string, sched schedule, task func(context.Context) (int, error)) {
	defer s.wg.Done()

	for {
		next := sched.next(s.now())
		slog.Info("Next task scheduled", "task", name, "next_run", next.Format(time.DateTime))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
		case <-s.stop:
			timer.Stop()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		sent, err := task(ctx)
		cancel()
		if err != nil {
			slog.Error("Scheduled task failed", "task", name, "sent", sent, "error", err)
			continue
		}
		slog.Info("Scheduled task completed", "task", name, "sent", sent)
	}
}

// SendEvaluationReminders emails each rapporteur holding in-progress
// evaluations older than EvaluationReminderDays. It returns the number of
// emails sent; one failed recipient does not stop the others.
func (s *Scheduler) SendEvaluationReminders(ctx context.Context) (int, error) {
	evals, err := s.src.Evaluations.List(ctx, repository.EvaluationFilter{Status: models.EvaluationInProgress})
	if err != nil {
		return 0, fmt.Errorf("failed to list open evaluations: %w", err)
	}

	now := s.now()
	cutoff := now.AddDate(0, 0, -s.config.EvaluationReminderDays)

	type pending struct {
		count  int
		oldest time.Time
	}
	byRapporteur := make(map[uint]*pending)
	var order []uint
	for _, ev := range evals {
		if ev.EvaluatorID == nil || !ev.CreatedAt.Before(cutoff) {
			continue
		}
		p, ok := byRapporteur[*ev.EvaluatorID]
		if !ok {
			p = &pending{oldest: ev.CreatedAt}
			byRapporteur[*ev.EvaluatorID] = p
			order = append(order, *ev.EvaluatorID)
		}
		p.count++
		if ev.CreatedAt.Before(p.oldest) {
			p.oldest = ev.CreatedAt
		}
	}

	sent := 0
	for _, id := range order {
		rp, err := s.src.Rapporteurs.GetByID(ctx, id)
		if err != nil {
			slog.Error("Failed to get rapporteur", "rapporteur_id", id, "error", err)
			continue
		}
		if rp.Email == "" {
			slog.Debug("Rapporteur has no email, reminder skipped", "rapporteur_id", id)
			continue
		}

		p := byRapporteur[id]
		err = s.mailer.SendEvaluationReminder(rp.Email, email.EvaluationReminder{
			RapporteurName: rp.Name,
			Pending:        p.count,
			OldestDays:     int(now.Sub(p.oldest).Hours() / 24),
			Faculty:        s.faculty,
		})
		if err != nil {
			slog.Error("Failed to send evaluation reminder", "rapporteur_id", id, "error", err)
			continue
		}
		sent++
		slog.Info("Evaluation reminder sent", "rapporteur_id", id, "pending", p.count)
	}
	return sent, nil
}

// SendDefenseReminders notifies candidates DefenseNoticeDays before their
// scheduled defense and again the day before.
func (s *Scheduler) SendDefenseReminders(ctx context.Context) (int, error) {
	today := dateOf(s.now())
	defenses, err := s.src.Defenses.Upcoming(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list upcoming defenses: %w", err)
	}

	sent := 0
	for _, d := range defenses {
		if d.Date == nil {
			continue
		}
		daysLeft := int(dateOf(*d.Date).Sub(today).Hours() / 24)
		if daysLeft != s.config.DefenseNoticeDays && daysLeft != 1 {
			continue
		}

		c, err := s.src.Candidates.GetByID(ctx, d.CandidateID)
		if err != nil {
			slog.Error("Failed to get candidate", "candidate_id", d.CandidateID, "error", err)
			continue
		}
		if c.Email == "" {
			continue
		}

		err = s.mailer.SendDefenseReminder(c.Email, email.DefenseReminder{
			CandidateName: c.FirstName + " " + c.LastName,
			ThesisTitle:   c.ThesisTitle,
			DefenseDate:   d.Date.Format("02/01/2006"),
			DefenseTime:   d.Time,
			Location:      d.Location,
			DaysLeft:      daysLeft,
			Faculty:       s.faculty,
		})
		if err != nil {
			slog.Error("Failed to send defense reminder", "defense_id", d.ID, "error", err)
			continue
		}
		sent++
		slog.Info("Defense reminder sent", "defense_id", d.ID, "days_left", daysLeft)
	}
	return sent, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
