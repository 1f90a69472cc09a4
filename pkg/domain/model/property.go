package model

import (
	"maps"
	"slices"
	"strings"
)

// Well-known property keys
const (
	PropEvent       = "event"
	PropEventType   = "event-type"
	PropProject     = "project"
	PropITSProject  = "its-project"
	PropIssue       = "issue"
	PropAssociation = "association"
	PropRevision    = "revision"
	PropRevisionOld = "revision-old"
)

// Properties is a flat set of facts about an event that rules are matched against
type Properties map[string]string

// Get returns the value of key and whether it is present
func (p Properties) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Merge copies all entries of others into p, later maps winning on conflicts
func (p Properties) Merge(others ...Properties) Properties {
	for _, o := range others {
		maps.Copy(p, o)
	}
	return p
}

// With returns a copy of p with the given pairs added
func (p Properties) With(kv ...string) Properties {
	out := make(Properties, len(p)+len(kv)/2)
	maps.Copy(out, p)
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

// Keys returns the keys in sorted order
func (p Properties) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// EventProperties is the result of property extraction for one event
type EventProperties struct {
	Project Properties
	Issues  []Properties
}

// Association tags
const (
	TagSomewhere   = "somewhere"
	TagSubject     = "subject"
	TagBody        = "body"
	TagFooter      = "footer"
	TagFooterKey   = "footer-"
	TagAddedPrefix = "added@"
)

// TagSet is a set of association tags
type TagSet map[string]struct{}

// NewTagSet builds a set from the given tags
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s TagSet) Add(tag string) { s[tag] = struct{}{} }

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexicographic order
func (s TagSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// String renders the set as the "association" property value
func (s TagSet) String() string {
	return strings.Join(s.Sorted(), " ")
}

// Associations maps an issue id to the places it was found
type Associations map[string]TagSet

// IssueIDs returns the issue ids in sorted order
func (a Associations) IssueIDs() []string {
	return slices.Sorted(maps.Keys(a))
}

// Add records tags for an issue, creating the entry if needed
func (a Associations) Add(issue string, tags ...string) {
	set, ok := a[issue]
	if !ok {
		set = NewTagSet()
		a[issue] = set
	}
	for _, t := range tags {
		set.Add(t)
	}
}
