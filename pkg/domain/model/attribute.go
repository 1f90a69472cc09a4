package model

import "strings"

// AccountAttribute identifies a user in a stream event
type AccountAttribute struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
}

// ChangeAttribute describes the change an event refers to
type ChangeAttribute struct {
	Project       string            `json:"project"`
	Branch        string            `json:"branch"`
	Topic         string            `json:"topic,omitempty"`
	ID            string            `json:"id"`
	Number        int               `json:"number"`
	Subject       string            `json:"subject"`
	Owner         *AccountAttribute `json:"owner,omitempty"`
	URL           string            `json:"url,omitempty"`
	CommitMessage string            `json:"commitMessage,omitempty"`
	Status        string            `json:"status,omitempty"`
	Private       bool              `json:"private,omitempty"`
	WIP           bool              `json:"wip,omitempty"`
}

// PatchSetAttribute describes one revision of a change
type PatchSetAttribute struct {
	Number     int               `json:"number"`
	Revision   string            `json:"revision"`
	Parents    []string          `json:"parents,omitempty"`
	Ref        string            `json:"ref,omitempty"`
	Uploader   *AccountAttribute `json:"uploader,omitempty"`
	Author     *AccountAttribute `json:"author,omitempty"`
	CreatedOn  int64             `json:"createdOn,omitempty"`
	Kind       string            `json:"kind,omitempty"`
	Insertions int               `json:"sizeInsertions,omitempty"`
	Deletions  int               `json:"sizeDeletions,omitempty"`
}

// ApprovalAttribute is a single vote attached to a comment
type ApprovalAttribute struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Value       string `json:"value"`
	OldValue    string `json:"oldValue,omitempty"`
}

// RefUpdateAttribute describes a reference move
type RefUpdateAttribute struct {
	OldRev  string `json:"oldRev"`
	NewRev  string `json:"newRev"`
	RefName string `json:"refName"`
	Project string `json:"project"`
}

// FullRefName returns the reference name including its refs/ prefix
func (a *RefUpdateAttribute) FullRefName() string {
	if a.RefName == "" || strings.HasPrefix(a.RefName, "refs/") {
		return a.RefName
	}
	return "refs/heads/" + a.RefName
}

// PatchSetID identifies a patch set of a change
type PatchSetID struct {
	Change   int
	PatchSet int
}

// Previous returns the id of the preceding patch set, or false for the first one
func (id PatchSetID) Previous() (PatchSetID, bool) {
	if id.PatchSet <= 1 {
		return PatchSetID{}, false
	}
	return PatchSetID{Change: id.Change, PatchSet: id.PatchSet - 1}, true
}
