package mailsmodels

import "fmt"

// LessonUpdate renvoie le sujet et le corps du mail pour une leçon modifiée
func LessonUpdate(lessonName string) (string, string) {
	return "Lesson update", fmt.Sprintf(`Lesson "%s" was updated.`, lessonName)
}
