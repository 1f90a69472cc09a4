package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// EventKind is the stream-events "type" tag of a repository event
type EventKind string

const (
	EventKindPatchSetCreated            EventKind = "patchset-created"
	EventKindCommentAdded               EventKind = "comment-added"
	EventKindChangeMerged               EventKind = "change-merged"
	EventKindChangeAbandoned            EventKind = "change-abandoned"
	EventKindChangeRestored             EventKind = "change-restored"
	EventKindRefUpdated                 EventKind = "ref-updated"
	EventKindWorkInProgressStateChanged EventKind = "wip-state-changed"
	EventKindPrivateStateChanged        EventKind = "private-state-changed"
	EventKindTopicChanged               EventKind = "topic-changed"
	EventKindProjectCreated             EventKind = "project-created"
)

var eventClassNames = map[EventKind]string{
	EventKindPatchSetCreated:            "PatchSetCreatedEvent",
	EventKindCommentAdded:               "CommentAddedEvent",
	EventKindChangeMerged:               "ChangeMergedEvent",
	EventKindChangeAbandoned:            "ChangeAbandonedEvent",
	EventKindChangeRestored:             "ChangeRestoredEvent",
	EventKindRefUpdated:                 "RefUpdatedEvent",
	EventKindWorkInProgressStateChanged: "WorkInProgressStateChangedEvent",
	EventKindPrivateStateChanged:        "PrivateStateChangedEvent",
	EventKindTopicChanged:               "TopicChangedEvent",
	EventKindProjectCreated:             "ProjectCreatedEvent",
}

// ClassName returns the name used as the "event" property
func (k EventKind) ClassName() string {
	return eventClassNames[k]
}

// RefScoped reports whether events of this kind belong to a project reference.
// Only those events take part in rule matching.
func (k EventKind) RefScoped() bool {
	switch k {
	case EventKindProjectCreated:
		return false
	default:
		_, ok := eventClassNames[k]
		return ok
	}
}

// Event is a repository change event. The concrete type carries the payload of its kind.
type Event interface {
	Kind() EventKind
	ProjectName() string
	RefName() string
}

// eventHeader holds the fields every stream event carries
type eventHeader struct {
	Type           EventKind `json:"type"`
	EventCreatedOn int64     `json:"eventCreatedOn,omitempty"`
}

func (h eventHeader) Kind() EventKind { return h.Type }

// changeEventHeader holds the fields shared by change-scoped events
type changeEventHeader struct {
	eventHeader
	Project string           `json:"project,omitempty"`
	Ref     string           `json:"refName,omitempty"`
	Change  *ChangeAttribute `json:"change,omitempty"`
}

func (h changeEventHeader) ProjectName() string {
	if h.Project != "" {
		return h.Project
	}
	if h.Change != nil {
		return h.Change.Project
	}
	return ""
}

func (h changeEventHeader) RefName() string {
	if h.Ref != "" {
		return h.Ref
	}
	if h.Change != nil && h.Change.Branch != "" {
		return "refs/heads/" + h.Change.Branch
	}
	return ""
}

// patchSetEventHeader holds the fields shared by events bound to a patch set
type patchSetEventHeader struct {
	changeEventHeader
	PatchSet *PatchSetAttribute `json:"patchSet,omitempty"`
}

// PatchSetCreatedEvent is emitted when a new patch set is uploaded
type PatchSetCreatedEvent struct {
	patchSetEventHeader
	Uploader *AccountAttribute `json:"uploader,omitempty"`
}

// CommentAddedEvent is emitted when a review comment (optionally with votes) is posted
type CommentAddedEvent struct {
	patchSetEventHeader
	Author    *AccountAttribute   `json:"author,omitempty"`
	Approvals []ApprovalAttribute `json:"approvals,omitempty"`
	Comment   string              `json:"comment,omitempty"`
}

// ChangeMergedEvent is emitted when a change is submitted
type ChangeMergedEvent struct {
	patchSetEventHeader
	Submitter *AccountAttribute `json:"submitter,omitempty"`
	NewRev    string            `json:"newRev,omitempty"`
}

// ChangeAbandonedEvent is emitted when a change is abandoned
type ChangeAbandonedEvent struct {
	patchSetEventHeader
	Abandoner *AccountAttribute `json:"abandoner,omitempty"`
	Reason    string            `json:"reason,omitempty"`
}

// ChangeRestoredEvent is emitted when an abandoned change is restored
type ChangeRestoredEvent struct {
	patchSetEventHeader
	Restorer *AccountAttribute `json:"restorer,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

// WorkInProgressStateChangedEvent is emitted when a change enters or leaves WIP
type WorkInProgressStateChangedEvent struct {
	patchSetEventHeader
	Changer *AccountAttribute `json:"changer,omitempty"`
}

// PrivateStateChangedEvent is emitted when a change becomes private or public
type PrivateStateChangedEvent struct {
	patchSetEventHeader
	Changer *AccountAttribute `json:"changer,omitempty"`
}

// TopicChangedEvent is emitted when the topic of a change is edited
type TopicChangedEvent struct {
	changeEventHeader
	Changer  *AccountAttribute `json:"changer,omitempty"`
	OldTopic string            `json:"oldTopic,omitempty"`
}

// RefUpdatedEvent is emitted when a reference is moved directly (push, submit, tag)
type RefUpdatedEvent struct {
	eventHeader
	Submitter *AccountAttribute   `json:"submitter,omitempty"`
	RefUpdate *RefUpdateAttribute `json:"refUpdate,omitempty"`
}

func (e *RefUpdatedEvent) ProjectName() string {
	if e.RefUpdate == nil {
		return ""
	}
	return e.RefUpdate.Project
}

func (e *RefUpdatedEvent) RefName() string {
	if e.RefUpdate == nil {
		return ""
	}
	return e.RefUpdate.FullRefName()
}

// ProjectCreatedEvent is emitted when a repository is created. It is not ref-scoped.
type ProjectCreatedEvent struct {
	eventHeader
	Project string `json:"projectName,omitempty"`
	Head    string `json:"headName,omitempty"`
}

func (e *ProjectCreatedEvent) ProjectName() string { return e.Project }
func (e *ProjectCreatedEvent) RefName() string     { return e.Head }

// ErrUnsupportedEvent is returned by DecodeEvent for well-formed events of a type
// this service does not handle
var ErrUnsupportedEvent = goerr.New("unsupported event type")

// DecodeEvent decodes one stream-events JSON object into its typed event
func DecodeEvent(data []byte) (Event, error) {
	var header eventHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, goerr.Wrap(err, "failed to decode event header")
	}

	var ev Event
	switch header.Type {
	case EventKindPatchSetCreated:
		ev = &PatchSetCreatedEvent{}
	case EventKindCommentAdded:
		ev = &CommentAddedEvent{}
	case EventKindChangeMerged:
		ev = &ChangeMergedEvent{}
	case EventKindChangeAbandoned:
		ev = &ChangeAbandonedEvent{}
	case EventKindChangeRestored:
		ev = &ChangeRestoredEvent{}
	case EventKindRefUpdated:
		ev = &RefUpdatedEvent{}
	case EventKindWorkInProgressStateChanged:
		ev = &WorkInProgressStateChangedEvent{}
	case EventKindPrivateStateChanged:
		ev = &PrivateStateChangedEvent{}
	case EventKindTopicChanged:
		ev = &TopicChangedEvent{}
	case EventKindProjectCreated:
		ev = &ProjectCreatedEvent{}
	default:
		return nil, goerr.Wrap(ErrUnsupportedEvent, "cannot decode event", goerr.V("type", header.Type))
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, goerr.Wrap(err, "failed to decode event payload", goerr.V("type", header.Type))
	}
	return ev, nil
}

// SimpleRefName strips the well-known prefixes from a reference name
func SimpleRefName(ref string) string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ref
}
