package classify

import (
	"fmt"
	"strings"

	"github.com/yungbote/studybits-backend/internal/domain"
	"github.com/yungbote/studybits-backend/internal/platform/openai"
)

const (
	KindQuestion = "question"
	KindCourse   = "course"
	KindUnit     = "unit"
)

// Prompt is one tag generation request.
type Prompt struct {
	Kind   string
	System string
	User   string
	Images []openai.ImageInput
}

func questionPrompt(q domain.Question) Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\nHints:", q.Text)
	var images []openai.ImageInput
	for _, h := range q.Hints {
		if h.Title != "" {
			fmt.Fprintf(&b, "\n\nHint Title: %s\nHint Content: %s", h.Title, h.Content)
		} else {
			fmt.Fprintf(&b, "\n\nHint Content: %s", h.Content)
		}
		if strings.HasPrefix(h.Image, "http") {
			images = append(images, openai.ImageInput{ImageURL: h.Image, Detail: "low"})
		}
	}
	return Prompt{
		Kind: KindQuestion,
		System: "You are designed to classify questions with tags.\n" +
			"Given the following question and any associated hints (text possibly with an image), " +
			"return a comma-separated list of appropriate tags from broad to specific.",
		User:   b.String(),
		Images: images,
	}
}

func coursePrompt(name string) Prompt {
	return Prompt{
		Kind: KindCourse,
		System: "You are designed to classify courses into broad and specific subject tags.\n" +
			"Given the course name, return a comma-separated list of relevant tags, from broad to specific.",
		User: "Course Name: " + name,
	}
}

func unitPrompt(name string) Prompt {
	return Prompt{
		Kind: KindUnit,
		System: "You are designed to classify units of study into relevant subject tags.\n" +
			"Given the unit's name, return a comma-separated list of lowercase tags from broad to specific.",
		User: "Unit Name: " + name,
	}
}
