package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindCourse Kind = "course"
	KindLesson Kind = "lesson"
)

// Task asks the worker to notify the subscribers of one course or lesson.
type Task struct {
	Kind       Kind      `json:"kind"`
	ID         string    `json:"id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewCourseTask(courseID string, now time.Time) Task {
	return Task{Kind: KindCourse, ID: courseID, EnqueuedAt: now}
}

func NewLessonTask(lessonID string, now time.Time) Task {
	return Task{Kind: KindLesson, ID: lessonID, EnqueuedAt: now}
}

func (t Task) Validate() error {
	if t.Kind != KindCourse && t.Kind != KindLesson {
		return fmt.Errorf("unknown task kind %q", t.Kind)
	}
	if t.ID == "" {
		return fmt.Errorf("task %s has no id", t.Kind)
	}
	return nil
}

func encodeTask(t Task) (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode task: %w", err)
	}
	return string(raw), nil
}

func decodeTask(raw string) (Task, error) {
	var t Task
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return t, fmt.Errorf("decode task: %w", err)
	}
	return t, nil
}
