package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/tennis-planner/models"
	"github.com/go-co-op/gocron/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent   []sentMail
	failTo map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.failTo[to] {
		return errors.New("mailbox unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func withDeadline(s *memStore, t models.Tournament, d models.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.EntryDeadline = &d
	s.tournaments[t.ID] = t
}

func reminderFixture(t *testing.T) (*memStore, *ReminderService, *fakeMailer) {
	t.Helper()
	store := newMemStore()
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	first := store.addAccount("prvni@example.cz", models.RoleParent)
	second := store.addAccount("druhy@example.cz", models.RoleParent)
	anna := store.addPlayer("Anna", &first, nil)
	ben := store.addPlayer("Ben", &first, nil)
	cyril := store.addPlayer("Cyril", &second, nil)

	soon := store.addTournament("Brzy", models.NewDate(2024, time.May, 11))
	withDeadline(store, soon, models.NewDate(2024, time.May, 3))
	later := store.addTournament("Později", models.NewDate(2024, time.June, 8))
	withDeadline(store, later, models.NewDate(2024, time.May, 30))
	edge := store.addTournament("Hrana", models.NewDate(2024, time.May, 12))
	withDeadline(store, edge, models.NewDate(2024, time.May, 4))

	store.addEntry(anna, soon, models.EntryPlanned)
	store.addEntry(ben, edge, models.EntryPlanned)
	store.addEntry(cyril, soon, models.EntryPlanned)
	store.addEntry(cyril, edge, models.EntryRegistered)
	store.addEntry(anna, later, models.EntryPlanned)

	mailer := &fakeMailer{failTo: map[string]bool{}}
	svc := NewReminderService(memEntries{store}, mailer, 3, prague, discardLogger)
	// 23:30 UTC on April 30 is already May 1 in Prague.
	svc.now = func() time.Time { return time.Date(2024, time.April, 30, 23, 30, 0, 0, time.UTC) }
	return store, svc, mailer
}

func TestSendDueRemindersGroupsByParent(t *testing.T) {
	_, svc, mailer := reminderFixture(t)

	sent, err := svc.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, mailer.sent, 2)

	byRecipient := map[string]sentMail{}
	for _, m := range mailer.sent {
		byRecipient[m.to] = m
		assert.Equal(t, reminderSubject, m.subject)
	}

	first := byRecipient["prvni@example.cz"].body
	assert.Contains(t, first, "<strong>Anna</strong>: Brzy")
	assert.Contains(t, first, "<strong>Ben</strong>: Hrana")
	assert.Contains(t, first, "uzávěrka 2024-05-04")
	assert.NotContains(t, first, "Později")

	second := byRecipient["druhy@example.cz"].body
	assert.Contains(t, second, "<strong>Cyril</strong>: Brzy")
	assert.NotContains(t, second, "Hrana", "registered entries are not reminded")
}

func TestSendDueRemindersContinuesAfterFailure(t *testing.T) {
	_, svc, mailer := reminderFixture(t)
	mailer.failTo["druhy@example.cz"] = true

	sent, err := svc.SendDueReminders(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "prvni@example.cz", mailer.sent[0].to)
}

func TestSendDueRemindersNothingDue(t *testing.T) {
	_, svc, mailer := reminderFixture(t)
	svc.now = func() time.Time { return time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC) }

	sent, err := svc.SendDueReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.sent)
}

func TestScheduleRegistersDailyJob(t *testing.T) {
	_, svc, _ := reminderFixture(t)
	scheduler, err := gocron.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = scheduler.Shutdown() })

	job, err := svc.Schedule(scheduler, 7)
	require.NoError(t, err)
	assert.Equal(t, "deadline-reminders", job.Name())
	assert.Len(t, scheduler.Jobs(), 1)
}
