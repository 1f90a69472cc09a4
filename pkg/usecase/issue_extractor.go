package usecase

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

// footerLine matches "Key: value" trailer lines such as "Bug: 42" or "Change-Id: I12ab"
var footerLine = regexp.MustCompile(`^([A-Za-z0-9-]+):(?:\s.*)?$`)

type segment int

const (
	segmentNone segment = iota
	segmentSubject
	segmentBody
	segmentFooter
)

// messageLayout assigns every line of a commit message to a segment
type messageLayout struct {
	starts   []int // byte offset of each line
	segments []segment
	keys     []string // footer key per line, "" elsewhere
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// layoutMessage splits a message into subject, body and footer lines.
//
// The subject is the first line. Body and footer only exist when a blank line follows
// the subject somewhere. The footer is the trailing run of "Key: value" lines, and only
// counts as one when a blank line sits directly above it.
func layoutMessage(message string) *messageLayout {
	lines := strings.Split(message, "\n")
	l := &messageLayout{
		starts:   make([]int, len(lines)),
		segments: make([]segment, len(lines)),
		keys:     make([]string, len(lines)),
	}

	offset := 0
	for i, line := range lines {
		l.starts[i] = offset
		offset += len(line) + 1
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	l.segments[0] = segmentSubject

	// trailing blank lines, including the one left by a final newline, separate nothing
	last := len(lines) - 1
	for last > 0 && isBlank(lines[last]) {
		last--
	}
	if last == 0 {
		return l
	}

	hasSeparator := false
	for _, line := range lines[1:last] {
		if isBlank(line) {
			hasSeparator = true
			break
		}
	}
	if !hasSeparator {
		return l
	}

	k := last
	for k >= 1 && !isBlank(lines[k]) && footerLine.MatchString(lines[k]) {
		k--
	}
	footerStart := last + 1
	if k >= 1 && k < last && isBlank(lines[k]) {
		footerStart = k + 1
	}

	for i := 1; i < footerStart; i++ {
		l.segments[i] = segmentBody
	}
	for i := footerStart; i <= last; i++ {
		l.segments[i] = segmentFooter
		l.keys[i] = footerLine.FindStringSubmatch(lines[i])[1]
	}

	return l
}

// lineAt returns the index of the line containing the byte offset
func (l *messageLayout) lineAt(offset int) int {
	return sort.Search(len(l.starts), func(i int) bool {
		return l.starts[i] > offset
	}) - 1
}

// ExtractIssues finds every issue reference in a commit message and tags it with the
// segments it occurs in. With group 0 the whole match is the issue id, otherwise the
// given capture group; matches with an empty id are ignored.
func ExtractIssues(message string, pattern *regexp.Regexp, group int) model.Associations {
	result := model.Associations{}
	if message == "" || pattern == nil {
		return result
	}

	layout := layoutMessage(message)
	for _, m := range pattern.FindAllStringSubmatchIndex(message, -1) {
		if 2*group+1 >= len(m) || m[2*group] < 0 {
			continue
		}
		id := message[m[2*group]:m[2*group+1]]
		if id == "" {
			continue
		}

		tags := []string{model.TagSomewhere}
		line := layout.lineAt(m[0])
		switch layout.segments[line] {
		case segmentSubject:
			tags = append(tags, model.TagSubject)
		case segmentBody:
			tags = append(tags, model.TagBody)
		case segmentFooter:
			tags = append(tags, model.TagFooter, model.TagFooterKey+layout.keys[line])
		}
		result.Add(id, tags...)
	}

	return result
}

// DiffAssociations adds an "added@<tag>" twin for every tag of current that previous
// lacks for the same issue. A nil previous means there was no prior revision.
func DiffAssociations(current, previous model.Associations) model.Associations {
	for id, tags := range current {
		before := previous[id]
		for _, tag := range tags.Sorted() {
			if !before.Has(tag) {
				tags.Add(model.TagAddedPrefix + tag)
			}
		}
	}
	return current
}

// IssueExtractor extracts issue associations from commit messages with one pattern
type IssueExtractor struct {
	pattern  *regexp.Regexp
	group    int
	commits  interfaces.CommitFetcher
	patchSet interfaces.PatchSetLookup
}

// IssueExtractorOption configures an IssueExtractor
type IssueExtractorOption func(*IssueExtractor)

// WithCommitFetcher enables IssueIDs lookups by revision
func WithCommitFetcher(f interfaces.CommitFetcher) IssueExtractorOption {
	return func(x *IssueExtractor) {
		x.commits = f
	}
}

// WithPatchSetLookup enables diffing against the previous patch set
func WithPatchSetLookup(l interfaces.PatchSetLookup) IssueExtractorOption {
	return func(x *IssueExtractor) {
		x.patchSet = l
	}
}

// NewIssueExtractor compiles the issue pattern and checks that group exists in it
func NewIssueExtractor(pattern string, group int, opts ...IssueExtractorOption) (*IssueExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid issue pattern", goerr.V("pattern", pattern))
	}
	if group < 0 || group > re.NumSubexp() {
		return nil, goerr.New("issue pattern group out of range",
			goerr.V("pattern", pattern),
			goerr.V("group", group),
			goerr.V("groups", re.NumSubexp()),
		)
	}

	x := &IssueExtractor{
		pattern: re,
		group:   group,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Pattern returns the compiled issue pattern
func (x *IssueExtractor) Pattern() *regexp.Regexp {
	return x.pattern
}

// Extract returns the issue associations of a message
func (x *IssueExtractor) Extract(message string) model.Associations {
	return ExtractIssues(message, x.pattern, x.group)
}

// ExtractSince returns the associations of message including "added@" tags relative
// to previous. A nil previous means the message has no prior revision.
func (x *IssueExtractor) ExtractSince(message string, previous *string) model.Associations {
	var before model.Associations
	if previous != nil {
		before = x.Extract(*previous)
	}
	return DiffAssociations(x.Extract(message), before)
}

// IssueIDs extracts the associations of a revision. When a patch set is given the
// result is diffed against the previous patch set of the same change. Lookup failures
// are treated as missing data.
func (x *IssueExtractor) IssueIDs(ctx context.Context, project, revision string, patchSet *model.PatchSetID) model.Associations {
	logger := ctxlog.From(ctx)

	if x.commits == nil || revision == "" {
		return model.Associations{}
	}

	message, err := x.commits.Fetch(ctx, project, revision)
	if err != nil {
		logger.Warn("Failed to fetch commit message",
			"project", project,
			"revision", revision,
			"error", err,
		)
		return model.Associations{}
	}

	if patchSet == nil {
		return x.Extract(message)
	}

	return x.ExtractSince(message, x.previousMessage(ctx, project, *patchSet))
}

func (x *IssueExtractor) previousMessage(ctx context.Context, project string, id model.PatchSetID) *string {
	logger := ctxlog.From(ctx)

	if _, ok := id.Previous(); !ok || x.patchSet == nil {
		return nil
	}

	revision, found, err := x.patchSet.RevisionOfPreviousPatchSet(ctx, project, id)
	if err != nil {
		logger.Warn("Failed to resolve previous patch set",
			"project", project,
			"change", id.Change,
			"patch_set", id.PatchSet,
			"error", err,
		)
		return nil
	}
	if !found {
		return nil
	}

	message, err := x.commits.Fetch(ctx, project, revision)
	if err != nil {
		logger.Warn("Failed to fetch previous commit message",
			"project", project,
			"revision", revision,
			"error", err,
		)
		return nil
	}
	return &message
}
