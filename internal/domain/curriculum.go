package domain

import (
	"github.com/yungbote/studybits-backend/internal/data/docstore"
)

type Hint struct {
	Key     string `json:"key,omitempty"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Image   string `json:"image,omitempty"`
}

type Answer struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
	Hint    *Hint  `json:"hint,omitempty"`
}

// Question mirrors questions/{id}. CourseName and UnitName are a denormalized
// copy and may be stale.
type Question struct {
	ID         string   `json:"id"`
	CourseID   string   `json:"course"`
	UnitID     string   `json:"unit,omitempty"`
	Tags       []string `json:"tags"`
	CourseName string   `json:"course_name,omitempty"`
	UnitName   string   `json:"unit_name,omitempty"`
	Text       string   `json:"question,omitempty"`
	Hints      []Hint   `json:"hints,omitempty"`
	Answers    []Answer `json:"answers,omitempty"`
}

type Course struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags"`
	NumQuestions int      `json:"numQuestions"`
}

type Unit struct {
	ID          string   `json:"id"`
	CourseID    string   `json:"course_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Questions   []string `json:"questions"`
}

// LearningState is the per (user, course) personalization record.
type LearningState struct {
	UserID            string   `json:"uid"`
	CourseID          string   `json:"course_id"`
	LikedQuestions    []string `json:"liked_questions"`
	DislikedQuestions []string `json:"disliked_questions"`
	AnsweredQuestions []string `json:"answered_questions"`
	SubscribedCourses []string `json:"subscribed_courses"`
}

func QuestionFromRecord(id string, rec docstore.Record) Question {
	return Question{
		ID:         id,
		CourseID:   stringField(rec, "course"),
		UnitID:     stringField(rec, "unit"),
		Tags:       stringList(rec, "tags"),
		CourseName: stringField(rec, "course_name"),
		UnitName:   stringField(rec, "unit_name"),
		Text:       stringField(rec, "question"),
		Hints:      hintList(rec["hints"]),
		Answers:    answerList(rec["answers"]),
	}
}

func CourseFromRecord(id string, rec docstore.Record) Course {
	return Course{
		ID:           id,
		Name:         stringField(rec, "name"),
		Description:  stringField(rec, "description"),
		Tags:         stringList(rec, "tags"),
		NumQuestions: intField(rec, "numQuestions"),
	}
}

func UnitFromRecord(courseID, id string, rec docstore.Record) Unit {
	return Unit{
		ID:          id,
		CourseID:    courseID,
		Name:        stringField(rec, "name"),
		Description: stringField(rec, "description"),
		Tags:        stringList(rec, "tags"),
		Questions:   stringList(rec, "questions"),
	}
}

func LearningStateFromRecord(uid, courseID string, rec docstore.Record) LearningState {
	return LearningState{
		UserID:            uid,
		CourseID:          courseID,
		LikedQuestions:    stringList(rec, "liked_questions"),
		DislikedQuestions: stringList(rec, "disliked_questions"),
		AnsweredQuestions: stringList(rec, "answered_questions"),
		SubscribedCourses: stringList(rec, "subscribed_courses"),
	}
}

func (q Question) Record() docstore.Record {
	rec := docstore.Record{
		"course": q.CourseID,
		"tags":   toAnySlice(q.Tags),
	}
	setIf(rec, "unit", q.UnitID)
	setIf(rec, "course_name", q.CourseName)
	setIf(rec, "unit_name", q.UnitName)
	setIf(rec, "question", q.Text)
	if len(q.Hints) > 0 {
		hints := make([]any, 0, len(q.Hints))
		for _, h := range q.Hints {
			hints = append(hints, hintRecord(h))
		}
		rec["hints"] = hints
	}
	if len(q.Answers) > 0 {
		answers := make([]any, 0, len(q.Answers))
		for _, a := range q.Answers {
			m := map[string]any{"id": a.ID, "text": a.Text, "correct": a.Correct}
			if a.Hint != nil {
				m["hint"] = hintRecord(*a.Hint)
			}
			answers = append(answers, m)
		}
		rec["answers"] = answers
	}
	return rec
}

func (c Course) Record() docstore.Record {
	rec := docstore.Record{
		"name":         c.Name,
		"tags":         toAnySlice(c.Tags),
		"numQuestions": c.NumQuestions,
	}
	setIf(rec, "description", c.Description)
	return rec
}

func (u Unit) Record() docstore.Record {
	rec := docstore.Record{
		"name":      u.Name,
		"tags":      toAnySlice(u.Tags),
		"questions": toAnySlice(u.Questions),
	}
	setIf(rec, "description", u.Description)
	return rec
}

func (s LearningState) Record() docstore.Record {
	return docstore.Record{
		"liked_questions":    toAnySlice(s.LikedQuestions),
		"disliked_questions": toAnySlice(s.DislikedQuestions),
		"answered_questions": toAnySlice(s.AnsweredQuestions),
		"subscribed_courses": toAnySlice(s.SubscribedCourses),
	}
}
