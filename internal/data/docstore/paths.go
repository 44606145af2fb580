package docstore

import "strings"

const (
	QuestionsCollection = "questions"
	CoursesCollection   = "courses"
)

func UnitsCollection(courseID string) string {
	return join(CoursesCollection, courseID, "units")
}

// LearningCoursesCollection holds one learning-state document per course for uid.
func LearningCoursesCollection(uid string) string {
	return join("learning", uid, "courses")
}

func join(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		clean = append(clean, strings.Trim(p, "/"))
	}
	return strings.Join(clean, "/")
}

// SplitPath splits "a/b/c/d" into the collection "a/b/c" and document id "d".
func SplitPath(docPath string) (collection, id string) {
	docPath = strings.Trim(docPath, "/")
	i := strings.LastIndex(docPath, "/")
	if i < 0 {
		return "", docPath
	}
	return docPath[:i], docPath[i+1:]
}
