package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"study-engine/internal/domain"
	"study-engine/internal/schedule"
	"study-engine/internal/session"
)

// runner is the part shared by deck and quiz controllers: background tasks,
// effect execution and notices. Its methods run with the controller's lock held.
type runner struct {
	svc       *StudyService
	id        string
	key       string
	contentID string
	notices   *notifier
	tasks     []schedule.Task
	closed    bool
	// completedSaved is set once the completed-and-reset snapshot is stored.
	completedSaved bool
}

// Subscribe returns a channel of notices. The caller must invoke cancel.
func (r *runner) Subscribe() (<-chan Notice, func()) {
	return r.notices.subscribe()
}

func (r *runner) start(autosave, tick func()) error {
	sch := r.svc.deps.Scheduler
	if sch == nil {
		return nil
	}
	save, err := sch.Every(r.svc.cfg.SaveInterval, autosave)
	if err != nil {
		return fmt.Errorf("start autosave: %w", err)
	}
	r.tasks = append(r.tasks, save)
	timer, err := sch.Every(r.svc.cfg.TickInterval, tick)
	if err != nil {
		r.cancelTasks()
		return fmt.Errorf("start timer: %w", err)
	}
	r.tasks = append(r.tasks, timer)
	return nil
}

func (r *runner) cancelTasks() {
	for _, t := range r.tasks {
		t.Cancel()
	}
	r.tasks = nil
}

// execute runs effects in order. Save failures are returned; mastery and
// attempt writes are best-effort and only logged.
func (r *runner) execute(ctx context.Context, effects []session.Effect) error {
	var errs []error
	for _, e := range effects {
		switch e.Kind {
		case session.EffectRecordMastery:
			if _, err := r.svc.deps.Mastery.Record(ctx, r.key, e.ItemID, e.Correct); err != nil {
				log.Printf("session %s: record mastery %s: %v", r.id, e.ItemID, err)
			}
		case session.EffectSaveSnapshot:
			errs = append(errs, r.checkSave(r.svc.deps.Progress.Save(ctx, r.key, e.Snapshot)))
		case session.EffectSaveCompleted:
			errs = append(errs, r.saveCompleted(ctx))
		case session.EffectClearProgress:
			errs = append(errs, r.checkSave(r.svc.deps.Progress.Clear(ctx, r.key)))
		case session.EffectRecordAttempt:
			r.recordAttempt(ctx, e.Score)
		case session.EffectBreakReminder:
			r.notices.publish(Notice{Kind: NoticeBreak, Message: "Time for a short break."})
		}
	}
	return errors.Join(errs...)
}

func (r *runner) recordAttempt(ctx context.Context, score int) {
	if r.svc.deps.Attempts == nil {
		return
	}
	id, err := gonanoid.New()
	if err != nil {
		log.Printf("session %s: attempt id: %v", r.id, err)
		return
	}
	attempt := domain.QuizAttempt{
		ID:        id,
		QuizID:    r.contentID,
		Score:     score,
		Timestamp: r.svc.cfg.Clock(),
	}
	if err := r.svc.deps.Attempts.RecordQuizAttempt(ctx, attempt); err != nil {
		log.Printf("session %s: record attempt: %v", r.id, err)
	}
}

// checkSave logs a failed save and tells subscribers about it.
func (r *runner) checkSave(err error) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	var perr *domain.PersistenceError
	switch {
	case errors.As(err, &verr):
		log.Printf("session %s: snapshot rejected: %v", r.id, err)
		r.notices.publish(Notice{Kind: NoticeInvalidProgress, Message: "Progress was not saved.", Details: verr.Messages})
	case errors.As(err, &perr):
		log.Printf("session %s: %v", r.id, err)
		r.notices.publish(Notice{Kind: NoticeSaveFailed, Message: perr.UserMessage()})
	default:
		log.Printf("session %s: save: %v", r.id, err)
	}
	return err
}

// saveLocked writes the current snapshot. A completed session writes the
// completed-and-reset snapshot instead, only until one such write succeeds.
func (r *runner) saveLocked(ctx context.Context, completed bool, snap domain.ProgressSnapshot) error {
	if completed {
		if r.completedSaved {
			return nil
		}
		return r.saveCompleted(ctx)
	}
	return r.checkSave(r.svc.deps.Progress.Save(ctx, r.key, snap))
}

func (r *runner) saveCompleted(ctx context.Context) error {
	err := r.checkSave(r.svc.deps.Progress.SaveCompleted(ctx, r.key))
	r.completedSaved = err == nil
	return err
}

func (r *runner) backgroundContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), backgroundTimeout)
}
