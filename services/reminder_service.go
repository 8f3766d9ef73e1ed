package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/Dosada05/tennis-planner/repositories"
	"github.com/go-co-op/gocron/v2"
)

const reminderSubject = "Blíží se uzávěrka přihlášek na turnaj"

var reminderTemplate = template.Must(template.New("reminder").Parse(`<p>Dobrý den,</p>
<p>u těchto plánovaných turnajů se blíží uzávěrka přihlášek:</p>
<ul>
{{- range . }}
<li><strong>{{ .Player.Name }}</strong>: {{ .Tournament.Name }} ({{ .Tournament.Place }}, {{ .Tournament.Date }}), uzávěrka {{ .Tournament.EntryDeadline }}</li>
{{- end }}
</ul>
<p>Tenisový klub</p>
`))

type ReminderService struct {
	entryRepo repositories.EntryRepository
	mailer    Mailer
	daysAhead int
	location  *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

func NewReminderService(entryRepo repositories.EntryRepository, mailer Mailer, daysAhead int, location *time.Location, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		entryRepo: entryRepo,
		mailer:    mailer,
		daysAhead: daysAhead,
		location:  location,
		now:       time.Now,
		logger:    logger,
	}
}

// Schedule registers the daily run at hour:00 in the scheduler's location.
func (s *ReminderService) Schedule(scheduler gocron.Scheduler, hour int) (gocron.Job, error) {
	return scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, err := s.SendDueReminders(ctx); err != nil {
				s.logger.ErrorContext(ctx, "reminder run failed", slog.Any("error", err))
			}
		}),
		gocron.WithName("deadline-reminders"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}

// SendDueReminders mails every parent one list of planned entries whose
// entry deadline falls between today and today+daysAhead in the club's
// time zone. It returns the number of mails sent; a failed mail does not
// stop the others.
func (s *ReminderService) SendDueReminders(ctx context.Context) (int, error) {
	today := models.DateOf(s.now().In(s.location))
	due, err := s.entryRepo.ListUpcomingDeadlines(ctx, today, today.AddDays(s.daysAhead))
	if err != nil {
		return 0, fmt.Errorf("failed to load upcoming deadlines: %w", err)
	}

	order := make([]string, 0)
	byParent := make(map[string][]models.DeadlineReminder)
	for _, r := range due {
		if _, ok := byParent[r.ParentEmail]; !ok {
			order = append(order, r.ParentEmail)
		}
		byParent[r.ParentEmail] = append(byParent[r.ParentEmail], r)
	}

	sent := 0
	var errs []error
	for _, email := range order {
		body, err := renderReminder(byParent[email])
		if err != nil {
			return sent, err
		}
		if err := s.mailer.Send(ctx, email, reminderSubject, body); err != nil {
			s.logger.WarnContext(ctx, "reminder not sent", slog.String("to", email), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		sent++
	}

	s.logger.InfoContext(ctx, "deadline reminders sent",
		slog.Int("entries", len(due)), slog.Int("mails", sent), slog.Int("failed", len(errs)))
	return sent, errors.Join(errs...)
}

func renderReminder(reminders []models.DeadlineReminder) (string, error) {
	var body bytes.Buffer
	if err := reminderTemplate.Execute(&body, reminders); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона напоминания: %w", err)
	}
	return body.String(), nil
}
