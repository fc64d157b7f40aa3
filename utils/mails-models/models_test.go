package mailsmodels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseUpdate(t *testing.T) {
	subject, body := CourseUpdate("Go basics")
	assert.Equal(t, "Course update", subject)
	assert.Equal(t, `Course "Go basics" was updated.`, body)
}

func TestLessonUpdate(t *testing.T) {
	subject, body := LessonUpdate("Channels")
	assert.Equal(t, "Lesson update", subject)
	assert.Equal(t, `Lesson "Channels" was updated.`, body)
}
