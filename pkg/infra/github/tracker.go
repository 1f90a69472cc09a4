// Package github implements the tracker facade on GitHub issues. Issues are addressed
// as "42", "#42" or "owner/repo#42"; versions are milestones.
package github

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/go-github/v60/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Field names accepted by AddValueToField
const (
	FieldLabels    = "labels"
	FieldAssignees = "assignees"
	FieldMilestone = "milestone"
)

// Tracker is the GitHub issues facade
type Tracker struct {
	client *github.Client
	owner  string
	repo   string
}

// NewTracker creates a Tracker. defaultRepo ("owner/repo") is used for issue ids and
// tracker projects that do not name a repository themselves.
func NewTracker(client *github.Client, defaultRepo string) (*Tracker, error) {
	t := &Tracker{client: client}
	if defaultRepo != "" {
		owner, repo, err := splitRepo(defaultRepo)
		if err != nil {
			return nil, err
		}
		t.owner, t.repo = owner, repo
	}
	return t, nil
}

type issueRef struct {
	owner  string
	repo   string
	number int
}

func splitRepo(s string) (string, string, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", goerr.New("invalid repository, expected owner/repo", goerr.V("repository", s))
	}
	return parts[0], parts[1], nil
}

func (t *Tracker) parseIssue(issue string) (*issueRef, error) {
	ref := &issueRef{owner: t.owner, repo: t.repo}

	num := issue
	if idx := strings.LastIndex(issue, "#"); idx >= 0 {
		if idx > 0 {
			owner, repo, err := splitRepo(issue[:idx])
			if err != nil {
				return nil, err
			}
			ref.owner, ref.repo = owner, repo
		}
		num = issue[idx+1:]
	}

	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return nil, goerr.New("invalid issue id", goerr.V("issue", issue))
	}
	ref.number = n

	if ref.owner == "" {
		return nil, goerr.New("issue id has no repository and no default is set", goerr.V("issue", issue))
	}
	return ref, nil
}

func (t *Tracker) parseProject(itsProject string) (string, string, error) {
	if itsProject == "" {
		if t.owner == "" {
			return "", "", goerr.New("no tracker project and no default repository")
		}
		return t.owner, t.repo, nil
	}
	return splitRepo(itsProject)
}

// AddComment posts a comment on an issue
func (t *Tracker) AddComment(ctx context.Context, issue, comment string) error {
	if strings.TrimSpace(comment) == "" {
		return goerr.New("comment body cannot be empty", goerr.V("issue", issue))
	}
	ref, err := t.parseIssue(issue)
	if err != nil {
		return err
	}

	_, _, err = t.client.Issues.CreateComment(ctx, ref.owner, ref.repo, ref.number, &github.IssueComment{
		Body: github.String(comment),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create comment", goerr.V("issue", issue))
	}
	ctxlog.From(ctx).Debug("Comment added", "issue", issue)
	return nil
}

// PerformAction runs a raw instruction: close, reopen, label <name...>,
// unlabel <name>, assign <login...>
func (t *Tracker) PerformAction(ctx context.Context, issue, action string) error {
	ref, err := t.parseIssue(issue)
	if err != nil {
		return err
	}

	tokens := strings.Fields(action)
	if len(tokens) == 0 {
		return goerr.New("empty tracker action", goerr.V("issue", issue))
	}

	switch verb, args := tokens[0], tokens[1:]; verb {
	case "close", "reopen":
		state := "closed"
		if verb == "reopen" {
			state = "open"
		}
		_, _, err = t.client.Issues.Edit(ctx, ref.owner, ref.repo, ref.number, &github.IssueRequest{
			State: github.String(state),
		})
	case "label":
		if len(args) == 0 {
			return goerr.New("label requires a name", goerr.V("issue", issue))
		}
		_, _, err = t.client.Issues.AddLabelsToIssue(ctx, ref.owner, ref.repo, ref.number, args)
	case "unlabel":
		if len(args) != 1 {
			return goerr.New("unlabel requires exactly one name", goerr.V("issue", issue))
		}
		_, err = t.client.Issues.RemoveLabelForIssue(ctx, ref.owner, ref.repo, ref.number, args[0])
	case "assign":
		if len(args) == 0 {
			return goerr.New("assign requires a login", goerr.V("issue", issue))
		}
		_, _, err = t.client.Issues.AddAssignees(ctx, ref.owner, ref.repo, ref.number, args)
	default:
		return goerr.New("unsupported tracker action",
			goerr.V("issue", issue),
			goerr.V("action", action),
		)
	}

	if err != nil {
		return goerr.Wrap(err, "failed to perform tracker action",
			goerr.V("issue", issue),
			goerr.V("action", action),
		)
	}
	return nil
}

// CreateLinkForWebUI renders a Markdown link
func (t *Tracker) CreateLinkForWebUI(url, caption string) string {
	if caption == "" || caption == url {
		return url
	}
	return "[" + caption + "](" + url + ")"
}

// AddValueToField adds a label or assignee, or sets the milestone of an issue
func (t *Tracker) AddValueToField(ctx context.Context, issue, value, fieldID string) error {
	ref, err := t.parseIssue(issue)
	if err != nil {
		return err
	}

	switch fieldID {
	case FieldLabels:
		_, _, err = t.client.Issues.AddLabelsToIssue(ctx, ref.owner, ref.repo, ref.number, []string{value})
	case FieldAssignees:
		_, _, err = t.client.Issues.AddAssignees(ctx, ref.owner, ref.repo, ref.number, []string{value})
	case FieldMilestone:
		var ms *github.Milestone
		ms, err = t.findMilestone(ctx, ref.owner, ref.repo, value)
		if err == nil && ms == nil {
			return goerr.New("milestone not found", goerr.V("issue", issue), goerr.V("milestone", value))
		}
		if err == nil {
			_, _, err = t.client.Issues.Edit(ctx, ref.owner, ref.repo, ref.number, &github.IssueRequest{
				Milestone: ms.Number,
			})
		}
	default:
		return goerr.New("unsupported issue field", goerr.V("issue", issue), goerr.V("field", fieldID))
	}

	if err != nil {
		return goerr.Wrap(err, "failed to update issue field",
			goerr.V("issue", issue),
			goerr.V("field", fieldID),
		)
	}
	return nil
}

// CreateVersion creates an open milestone unless one with that title exists
func (t *Tracker) CreateVersion(ctx context.Context, itsProject, version string) error {
	owner, repo, err := t.parseProject(itsProject)
	if err != nil {
		return err
	}

	existing, err := t.findMilestone(ctx, owner, repo, version)
	if err != nil {
		return err
	}
	if existing != nil {
		ctxlog.From(ctx).Debug("Milestone already exists", "repository", owner+"/"+repo, "version", version)
		return nil
	}

	if _, _, err := t.client.Issues.CreateMilestone(ctx, owner, repo, &github.Milestone{
		Title: github.String(version),
	}); err != nil {
		return goerr.Wrap(err, "failed to create milestone",
			goerr.V("repository", owner+"/"+repo),
			goerr.V("version", version),
		)
	}
	return nil
}

// MarkVersionAsReleased closes the milestone of that title
func (t *Tracker) MarkVersionAsReleased(ctx context.Context, itsProject, version string) error {
	owner, repo, err := t.parseProject(itsProject)
	if err != nil {
		return err
	}

	ms, err := t.findMilestone(ctx, owner, repo, version)
	if err != nil {
		return err
	}
	if ms == nil {
		return goerr.New("milestone not found",
			goerr.V("repository", owner+"/"+repo),
			goerr.V("version", version),
		)
	}

	if _, _, err := t.client.Issues.EditMilestone(ctx, owner, repo, ms.GetNumber(), &github.Milestone{
		State: github.String("closed"),
	}); err != nil {
		return goerr.Wrap(err, "failed to close milestone",
			goerr.V("repository", owner+"/"+repo),
			goerr.V("version", version),
		)
	}
	return nil
}

func (t *Tracker) findMilestone(ctx context.Context, owner, repo, title string) (*github.Milestone, error) {
	opt := &github.MilestoneListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		milestones, resp, err := t.client.Issues.ListMilestones(ctx, owner, repo, opt)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list milestones", goerr.V("repository", owner+"/"+repo))
		}
		for _, ms := range milestones {
			if ms.GetTitle() == title {
				return ms, nil
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return nil, nil
		}
		opt.Page = resp.NextPage
	}
}
