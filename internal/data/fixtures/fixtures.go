// Package fixtures loads curriculum and learner data from YAML into a document store.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
	"github.com/yungbote/studybits-backend/internal/domain"
)

type File struct {
	Courses   []Course   `yaml:"courses"`
	Questions []Question `yaml:"questions"`
	Learning  []Learning `yaml:"learning"`
}

type Course struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Tags         []string `yaml:"tags"`
	NumQuestions int      `yaml:"num_questions"`
	Units        []Unit   `yaml:"units"`
}

type Unit struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Questions   []string `yaml:"questions"`
}

type Hint struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Image   string `yaml:"image"`
}

type Answer struct {
	ID      string `yaml:"id"`
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

type Question struct {
	ID         string   `yaml:"id"`
	Course     string   `yaml:"course"`
	Unit       string   `yaml:"unit"`
	Tags       []string `yaml:"tags"`
	CourseName string   `yaml:"course_name"`
	UnitName   string   `yaml:"unit_name"`
	Text       string   `yaml:"question"`
	Hints      []Hint   `yaml:"hints"`
	Answers    []Answer `yaml:"answers"`
}

type Learning struct {
	UID        string   `yaml:"uid"`
	CourseID   string   `yaml:"course_id"`
	Liked      []string `yaml:"liked"`
	Disliked   []string `yaml:"disliked"`
	Answered   []string `yaml:"answered"`
	Subscribed []string `yaml:"subscribed"`
}

func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse fixtures: %w", err)
	}
	return f, nil
}

// Stats counts the documents written by Apply.
type Stats struct {
	Courses   int
	Units     int
	Questions int
	Learning  int
}

// Apply writes f into w. Missing ids are generated. Course question counts and unit
// question lists left empty are derived from the questions in f.
func Apply(ctx context.Context, w docstore.Writer, f File) (Stats, error) {
	var st Stats
	for i := range f.Questions {
		if strings.TrimSpace(f.Questions[i].ID) == "" {
			f.Questions[i].ID = uuid.NewString()
		}
	}
	perCourse := map[string]int{}
	perUnit := map[string][]string{}
	for _, q := range f.Questions {
		perCourse[q.Course]++
		if q.Unit != "" {
			perUnit[q.Course+"/"+q.Unit] = append(perUnit[q.Course+"/"+q.Unit], q.ID)
		}
	}

	for _, c := range f.Courses {
		if strings.TrimSpace(c.ID) == "" {
			c.ID = uuid.NewString()
		}
		course := domain.Course{ID: c.ID, Name: c.Name, Description: c.Description, Tags: c.Tags, NumQuestions: c.NumQuestions}
		if course.NumQuestions == 0 {
			course.NumQuestions = perCourse[c.ID]
		}
		if err := w.Put(ctx, docstore.CoursesCollection, c.ID, course.Record()); err != nil {
			return st, fmt.Errorf("put course %s: %w", c.ID, err)
		}
		st.Courses++
		for _, u := range c.Units {
			if strings.TrimSpace(u.ID) == "" {
				u.ID = uuid.NewString()
			}
			unit := domain.Unit{ID: u.ID, CourseID: c.ID, Name: u.Name, Description: u.Description, Tags: u.Tags, Questions: u.Questions}
			if len(unit.Questions) == 0 {
				unit.Questions = perUnit[c.ID+"/"+u.ID]
			}
			if err := w.Put(ctx, docstore.UnitsCollection(c.ID), u.ID, unit.Record()); err != nil {
				return st, fmt.Errorf("put unit %s/%s: %w", c.ID, u.ID, err)
			}
			st.Units++
		}
	}

	for _, q := range f.Questions {
		question := domain.Question{
			ID:         q.ID,
			CourseID:   q.Course,
			UnitID:     q.Unit,
			Tags:       q.Tags,
			CourseName: q.CourseName,
			UnitName:   q.UnitName,
			Text:       q.Text,
		}
		for _, h := range q.Hints {
			question.Hints = append(question.Hints, domain.Hint{Title: h.Title, Content: h.Content, Image: h.Image})
		}
		for _, a := range q.Answers {
			question.Answers = append(question.Answers, domain.Answer{ID: a.ID, Text: a.Text, Correct: a.Correct})
		}
		if err := w.Put(ctx, docstore.QuestionsCollection, q.ID, question.Record()); err != nil {
			return st, fmt.Errorf("put question %s: %w", q.ID, err)
		}
		st.Questions++
	}

	for _, l := range f.Learning {
		if strings.TrimSpace(l.UID) == "" || strings.TrimSpace(l.CourseID) == "" {
			return st, fmt.Errorf("learning entry %d: uid and course_id are required", st.Learning)
		}
		state := domain.LearningState{
			UserID:            l.UID,
			CourseID:          l.CourseID,
			LikedQuestions:    l.Liked,
			DislikedQuestions: l.Disliked,
			AnsweredQuestions: l.Answered,
			SubscribedCourses: l.Subscribed,
		}
		if err := w.Put(ctx, docstore.LearningCoursesCollection(l.UID), l.CourseID, state.Record()); err != nil {
			return st, fmt.Errorf("put learning state %s/%s: %w", l.UID, l.CourseID, err)
		}
		st.Learning++
	}
	return st, nil
}
