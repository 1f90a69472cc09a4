package usecase

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

type attributeFlattener struct{}

// NewAttributeFlattener returns the default flattener for stream-event attributes
func NewAttributeFlattener() *attributeFlattener {
	return &attributeFlattener{}
}

// Flatten turns one attribute object into properties. The prefix only applies to
// accounts; the other attributes have fixed key names. Empty values are left out.
func (f *attributeFlattener) Flatten(attr any, prefix string) model.Properties {
	props := model.Properties{}

	switch a := attr.(type) {
	case *model.ChangeAttribute:
		if a == nil {
			return props
		}
		setIf(props, "project", a.Project)
		setIf(props, "branch", a.Branch)
		setIf(props, "topic", a.Topic)
		setIf(props, "subject", a.Subject)
		setIf(props, "change-id", a.ID)
		if a.Number > 0 {
			props["change-number"] = strconv.Itoa(a.Number)
		}
		setIf(props, "change-url", a.URL)
		setIf(props, "commit-message", a.CommitMessage)
		setIf(props, "status", a.Status)
		props["private"] = strconv.FormatBool(a.Private)
		props["wip"] = strconv.FormatBool(a.WIP)
		props.Merge(f.Flatten(a.Owner, "owner"))

	case *model.PatchSetAttribute:
		if a == nil {
			return props
		}
		setIf(props, model.PropRevision, a.Revision)
		if a.Number > 0 {
			props["patch-set-number"] = strconv.Itoa(a.Number)
		}
		setIf(props, "ref", a.Ref)
		if a.CreatedOn > 0 {
			props["created-on"] = strconv.FormatInt(a.CreatedOn, 10)
		}
		setIf(props, "parents", strings.Join(a.Parents, " "))
		props["insertions"] = strconv.Itoa(a.Insertions)
		props["deletions"] = strconv.Itoa(a.Deletions)
		setIf(props, "kind", a.Kind)
		props.Merge(
			f.Flatten(a.Uploader, "uploader"),
			f.Flatten(a.Author, "author"),
		)

	case *model.AccountAttribute:
		if a == nil {
			return props
		}
		setIf(props, prefixed(prefix, "name"), a.Name)
		setIf(props, prefixed(prefix, "email"), a.Email)
		setIf(props, prefixed(prefix, "username"), a.Username)

	case []model.ApprovalAttribute:
		for _, approval := range a {
			if approval.Type == "" {
				continue
			}
			props["approval-"+strings.ToLower(approval.Type)] = approval.Value
		}

	case *model.RefUpdateAttribute:
		if a == nil {
			return props
		}
		setIf(props, "project", a.Project)
		setIf(props, "ref", a.FullRefName())
		setIf(props, "ref-simple-name", model.SimpleRefName(a.FullRefName()))
		setIf(props, model.PropRevision, a.NewRev)
		setIf(props, model.PropRevisionOld, a.OldRev)
	}

	return props
}

func prefixed(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "-" + key
}

func setIf(props model.Properties, key, value string) {
	if value != "" {
		props[key] = value
	}
}
