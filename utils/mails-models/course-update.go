package mailsmodels

import "fmt"

// CourseUpdate renvoie le sujet et le corps du mail envoyé aux abonnés d'un cours
func CourseUpdate(courseName string) (string, string) {
	return "Course update", fmt.Sprintf(`Course "%s" was updated.`, courseName)
}
