package recommend

import (
	"context"
	"math/rand"
	"sort"
)

// ShuffleFunc has the shape of rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// NameResolver looks up display names from the source course and unit records.
type NameResolver interface {
	CourseName(ctx context.Context, courseID string) (string, bool)
	UnitName(ctx context.Context, courseID, unitID string) (string, bool)
}

// Group aggregates the candidates sharing one (course, unit) key.
type Group struct {
	CourseID    string
	UnitID      string
	QuestionIDs []string
	Priority    float64
	Score       int

	fallbackCourseName string
	fallbackUnitName   string
}

// GroupSummary is the response shape. UnitID and UnitName are null for questions
// without a unit.
type GroupSummary struct {
	CourseID   string   `json:"course_id"`
	CourseName string   `json:"course_name"`
	UnitID     *string  `json:"unit_id"`
	UnitName   *string  `json:"unit_name"`
	Questions  []string `json:"questions"`
}

// GroupCandidates folds candidates into groups in first-seen order.
func GroupCandidates(cands []Candidate) []Group {
	index := map[unitKey]int{}
	var groups []Group
	for _, c := range cands {
		key := unitKey{courseID: c.CourseID, unitID: c.UnitID}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{
				CourseID:           c.CourseID,
				UnitID:             c.UnitID,
				fallbackCourseName: c.CourseName,
				fallbackUnitName:   c.UnitName,
			})
		}
		g := &groups[i]
		g.QuestionIDs = append(g.QuestionIDs, c.QuestionID)
		g.Priority += c.Priority
		g.Score += c.Score
	}
	return groups
}

// SortGroups orders by priority then score, both descending. Full ties keep their
// first-seen order.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Priority != groups[j].Priority {
			return groups[i].Priority > groups[j].Priority
		}
		return groups[i].Score > groups[j].Score
	})
}

// Rank groups, sorts and truncates to topK, then shuffles the survivors. Ranking
// decides membership; the shuffle only decides display order.
func Rank(ctx context.Context, cands []Candidate, topK int, names NameResolver, shuffle ShuffleFunc) []GroupSummary {
	groups := GroupCandidates(cands)
	SortGroups(groups)
	if topK >= 0 && len(groups) > topK {
		groups = groups[:topK]
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, summarize(ctx, g, names))
	}
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// summarize prefers the source records' names over the copy stored on questions.
func summarize(ctx context.Context, g Group, names NameResolver) GroupSummary {
	s := GroupSummary{
		CourseID:   g.CourseID,
		CourseName: g.fallbackCourseName,
		Questions:  g.QuestionIDs,
	}
	if names != nil {
		if name, ok := names.CourseName(ctx, g.CourseID); ok {
			s.CourseName = name
		}
	}
	if g.UnitID != "" {
		unitID := g.UnitID
		unitName := g.fallbackUnitName
		if names != nil {
			if name, ok := names.UnitName(ctx, g.CourseID, g.UnitID); ok {
				unitName = name
			}
		}
		s.UnitID = &unitID
		s.UnitName = &unitName
	}
	return s
}
