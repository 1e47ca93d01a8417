package schedule

import (
	"encoding/json"
	"slices"
)

// TimeSet is an unordered set of times of day. The zero value is not usable; use NewTimeSet.
type TimeSet map[TimeOfDay]struct{}

func NewTimeSet(times ...TimeOfDay) TimeSet {
	s := make(TimeSet, len(times))
	for _, t := range times {
		s[t] = struct{}{}
	}
	return s
}

func (s TimeSet) Add(t TimeOfDay) { s[t] = struct{}{} }

func (s TimeSet) Has(t TimeOfDay) bool {
	_, ok := s[t]
	return ok
}

func (s TimeSet) Len() int { return len(s) }

func (s TimeSet) Clone() TimeSet {
	out := make(TimeSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s TimeSet) Sorted() []TimeOfDay {
	out := make([]TimeOfDay, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (s TimeSet) Union(o TimeSet) TimeSet {
	out := s.Clone()
	for t := range o {
		out[t] = struct{}{}
	}
	return out
}

// Minus returns the members of s that are not in o.
func (s TimeSet) Minus(o TimeSet) TimeSet {
	out := make(TimeSet, len(s))
	for t := range s {
		if !o.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

func (s TimeSet) Intersect(o TimeSet) TimeSet {
	out := make(TimeSet)
	for t := range s {
		if o.Has(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// SymmetricDifference keeps the members found in exactly one of s and o.
func (s TimeSet) SymmetricDifference(o TimeSet) TimeSet {
	return s.Minus(o).Union(o.Minus(s))
}

func (s TimeSet) Equal(o TimeSet) bool {
	if len(s) != len(o) {
		return false
	}
	for t := range s {
		if !o.Has(t) {
			return false
		}
	}
	return true
}

// Strings renders the sorted members as HH:MM.
func (s TimeSet) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, t := range sorted {
		out[i] = t.String()
	}
	return out
}

func (s TimeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *TimeSet) UnmarshalJSON(b []byte) error {
	var raw []TimeOfDay
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NewTimeSet(raw...)
	return nil
}
