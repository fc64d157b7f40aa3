// Package access holds every role and ownership decision of the API. Handlers
// ask the Engine before any write and use its scopes for every read.
package access

import (
	"context"
	"fmt"

	"courses-backend/models"
	"courses-backend/utils"

	"gorm.io/gorm"
)

const (
	ReasonModeratorCreateCourse = "Moderators cannot create courses"
	ReasonModeratorCreateLesson = "Moderators cannot create lessons"
	ReasonModeratorDeleteCourse = "Moderators cannot delete courses"
	ReasonModeratorDeleteLesson = "Moderators cannot delete lessons"
	ReasonNotCourseOwner        = "You are not the owner of this course"
	ReasonNotLessonOwner        = "You do not own this lesson or its course"
	ReasonNotPaymentOwner       = "You are not the owner of this payment"
	ReasonNotSubscriber         = "You cannot modify another user's subscription"
	ReasonNotSelf               = "You cannot edit another user"
)

// LessonOwnership answers the sibling-lesson part of the lesson predicate.
type LessonOwnership interface {
	OwnsLessonInCourse(ctx context.Context, userID, courseID string) (bool, error)
}

type Engine struct {
	lessons LessonOwnership
}

func NewEngine(lessons LessonOwnership) *Engine {
	return &Engine{lessons: lessons}
}

// ScopeOwned restreint une requête aux lignes dont l'actor est propriétaire.
// Les modérateurs voient tout.
func ScopeOwned(actor Actor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if actor.IsModerator() {
			return tx
		}
		return tx.Where("owner_id = ?", actor.ID)
	}
}

// ScopeSubscriptions restricts subscriptions to the actor's own rows.
func ScopeSubscriptions(actor Actor) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if actor.IsModerator() {
			return tx
		}
		return tx.Where("user_id = ?", actor.ID)
	}
}

// AuthorizeCourseCreate stamps the owner on success.
func (e *Engine) AuthorizeCourseCreate(actor Actor, course *models.Course) error {
	if actor.IsModerator() {
		return utils.Deny(ReasonModeratorCreateCourse)
	}
	owner := actor.ID
	course.OwnerID = &owner
	return nil
}

func (e *Engine) AuthorizeCourseUpdate(actor Actor, course *models.Course) error {
	if actor.IsModerator() || actor.owns(course.OwnerID) {
		return nil
	}
	return utils.Deny(ReasonNotCourseOwner)
}

func (e *Engine) AuthorizeCourseDelete(actor Actor, course *models.Course) error {
	if actor.IsModerator() {
		return utils.Deny(ReasonModeratorDeleteCourse)
	}
	return e.AuthorizeCourseUpdate(actor, course)
}

// AuthorizeLessonCreate stamps the owner on success.
func (e *Engine) AuthorizeLessonCreate(actor Actor, lesson *models.Lesson) error {
	if actor.IsModerator() {
		return utils.Deny(ReasonModeratorCreateLesson)
	}
	owner := actor.ID
	lesson.OwnerID = &owner
	return nil
}

// AuthorizeLessonUpdate expects lesson.Course to be loaded when available.
func (e *Engine) AuthorizeLessonUpdate(ctx context.Context, actor Actor, lesson *models.Lesson) error {
	if actor.IsModerator() {
		return nil
	}
	return e.lessonOwnership(ctx, actor, lesson)
}

func (e *Engine) AuthorizeLessonDelete(ctx context.Context, actor Actor, lesson *models.Lesson) error {
	if actor.IsModerator() {
		return utils.Deny(ReasonModeratorDeleteLesson)
	}
	return e.lessonOwnership(ctx, actor, lesson)
}

func (e *Engine) lessonOwnership(ctx context.Context, actor Actor, lesson *models.Lesson) error {
	if actor.owns(lesson.OwnerID) {
		return nil
	}
	if lesson.Course != nil && actor.owns(lesson.Course.OwnerID) {
		return nil
	}
	if e.lessons != nil && actor.ID != "" {
		ok, err := e.lessons.OwnsLessonInCourse(ctx, actor.ID, lesson.CourseID)
		if err != nil {
			return fmt.Errorf("sibling lesson lookup: %w", err)
		}
		if ok {
			return nil
		}
	}
	return utils.Deny(ReasonNotLessonOwner)
}

// AuthorizePaymentCreate is open to every authenticated user. The payer
// defaults to the actor and the owner is always the actor.
func (e *Engine) AuthorizePaymentCreate(actor Actor, payment *models.Payment) error {
	owner := actor.ID
	payment.OwnerID = &owner
	if payment.UserID == nil {
		payer := actor.ID
		payment.UserID = &payer
	}
	return nil
}

func (e *Engine) AuthorizePaymentUpdate(actor Actor, payment *models.Payment) error {
	if actor.IsModerator() || actor.owns(payment.OwnerID) {
		return nil
	}
	return utils.Deny(ReasonNotPaymentOwner)
}

func (e *Engine) AuthorizePaymentDelete(actor Actor, payment *models.Payment) error {
	return e.AuthorizePaymentUpdate(actor, payment)
}

// AuthorizeSubscriptionCreate subscribes the actor, whatever the payload says.
func (e *Engine) AuthorizeSubscriptionCreate(actor Actor, sub *models.Subscription) error {
	sub.UserID = actor.ID
	return nil
}

func (e *Engine) AuthorizeSubscriptionUpdate(actor Actor, sub *models.Subscription) error {
	if sub.UserID != "" && sub.UserID == actor.ID {
		return nil
	}
	return utils.Deny(ReasonNotSubscriber)
}

func (e *Engine) AuthorizeSubscriptionDelete(actor Actor, sub *models.Subscription) error {
	return e.AuthorizeSubscriptionUpdate(actor, sub)
}

// AuthorizeUserUpdate lets users edit their own profile only, moderators included.
func (e *Engine) AuthorizeUserUpdate(actor Actor, userID string) error {
	if userID != "" && userID == actor.ID {
		return nil
	}
	return utils.Deny(ReasonNotSelf)
}
