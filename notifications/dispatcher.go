package notifications

import (
	"context"
	"errors"
	"fmt"

	"courses-backend/utils"
	mailsmodels "courses-backend/utils/mails-models"

	"gorm.io/gorm"
)

// Dispatcher mails every active subscriber of a course when the course or one
// of its lessons changes. One failed recipient never stops the others.
type Dispatcher struct {
	Repo   Repository
	Mailer utils.Mailer
	From   string
}

func NewDispatcher(repo Repository, mailer utils.Mailer, from string) *Dispatcher {
	return &Dispatcher{Repo: repo, Mailer: mailer, From: from}
}

// Handle is the worker entry point.
func (d *Dispatcher) Handle(ctx context.Context, task Task) error {
	switch task.Kind {
	case KindCourse:
		return d.NotifyCourseUpdate(ctx, task.ID)
	case KindLesson:
		return d.NotifyLessonUpdate(ctx, task.ID)
	default:
		return fmt.Errorf("unknown task kind %q", task.Kind)
	}
}

func (d *Dispatcher) NotifyCourseUpdate(ctx context.Context, courseID string) error {
	course, err := d.Repo.FindCourse(ctx, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogWarn(fmt.Sprintf("Course %s not found, notification skipped", courseID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("find course %s: %w", courseID, err)
	}

	subject, body := mailsmodels.CourseUpdate(course.Name)
	return d.broadcast(ctx, course.ID, subject, body)
}

func (d *Dispatcher) NotifyLessonUpdate(ctx context.Context, lessonID string) error {
	lesson, err := d.Repo.FindLesson(ctx, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogWarn(fmt.Sprintf("Lesson %s not found, notification skipped", lessonID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("find lesson %s: %w", lessonID, err)
	}

	subject, body := mailsmodels.LessonUpdate(lesson.Name)
	return d.broadcast(ctx, lesson.CourseID, subject, body)
}

func (d *Dispatcher) broadcast(ctx context.Context, courseID, subject, body string) error {
	recipients, err := d.Repo.SubscriberEmails(ctx, courseID)
	if err != nil {
		return fmt.Errorf("subscribers of course %s: %w", courseID, err)
	}

	sent := 0
	for _, to := range recipients {
		if err := d.Mailer.Send(subject, body, d.From, to); err != nil {
			failure := &utils.NotificationDeliveryFailed{Recipient: to, Err: err}
			utils.LogError(failure, "Notification not delivered")
			continue
		}
		sent++
	}

	utils.LogSuccess(fmt.Sprintf("%s: %d/%d notifications sent for course %s", subject, sent, len(recipients), courseID))
	return nil
}
