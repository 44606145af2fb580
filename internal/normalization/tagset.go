package normalization

import "sort"

// TagSet is an unordered set of canonical tags.
type TagSet map[string]struct{}

func NewTagSet(words ...string) TagSet {
	s := make(TagSet, len(words))
	for _, w := range words {
		s.Add(w)
	}
	return s
}

func (s TagSet) Add(word string) {
	if word != "" {
		s[word] = struct{}{}
	}
}

func (s TagSet) Has(word string) bool {
	_, ok := s[word]
	return ok
}

func (s TagSet) Len() int { return len(s) }

func (s TagSet) Empty() bool { return len(s) == 0 }

// AddAll merges other into s.
func (s TagSet) AddAll(other TagSet) {
	for w := range other {
		s[w] = struct{}{}
	}
}

// Union returns a new set; neither input is modified.
func Union(sets ...TagSet) TagSet {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make(TagSet, n)
	for _, s := range sets {
		out.AddAll(s)
	}
	return out
}

func (s TagSet) Intersect(other TagSet) TagSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := TagSet{}
	for w := range small {
		if large.Has(w) {
			out[w] = struct{}{}
		}
	}
	return out
}

func (s TagSet) IntersectCount(other TagSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for w := range small {
		if large.Has(w) {
			n++
		}
	}
	return n
}

func (s TagSet) Minus(other TagSet) TagSet {
	out := TagSet{}
	for w := range s {
		if !other.Has(w) {
			out[w] = struct{}{}
		}
	}
	return out
}

// Sorted returns the members in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func (s TagSet) Equal(other TagSet) bool {
	if len(s) != len(other) {
		return false
	}
	for w := range s {
		if !other.Has(w) {
			return false
		}
	}
	return true
}
