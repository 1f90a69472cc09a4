package interfaces

import "context"

// Tracker is the facade over an issue-tracking system
type Tracker interface {
	// AddComment posts a comment on an issue
	AddComment(ctx context.Context, issue, comment string) error

	// PerformAction runs a free-form tracker instruction on an issue
	PerformAction(ctx context.Context, issue, action string) error

	// CreateLinkForWebUI renders a link in the tracker's markup
	CreateLinkForWebUI(url, caption string) string

	// AddValueToField appends value to a field of an issue
	AddValueToField(ctx context.Context, issue, value, fieldID string) error

	// CreateVersion creates a version in a tracker project
	CreateVersion(ctx context.Context, itsProject, version string) error

	// MarkVersionAsReleased flags an existing version as released
	MarkVersionAsReleased(ctx context.Context, itsProject, version string) error
}

// ChatNotifier posts plain messages to a chat channel
type ChatNotifier interface {
	PostMessage(ctx context.Context, channel, text string) error
}
