package rule

import "github.com/m-mizutani/itsgate/pkg/domain/model"

// Rule fires its actions when all of its conditions hold
type Rule struct {
	name       string
	conditions []*Condition
	actions    []model.ActionRequest
}

// New creates a rule. The slices are copied.
func New(name string, conditions []*Condition, actions []model.ActionRequest) *Rule {
	return &Rule{
		name:       name,
		conditions: append([]*Condition(nil), conditions...),
		actions:    append([]model.ActionRequest(nil), actions...),
	}
}

func (r *Rule) Name() string { return r.name }

func (r *Rule) Conditions() []*Condition {
	return append([]*Condition(nil), r.conditions...)
}

// ActionRequestsFor returns a fresh copy of the actions if every condition is met,
// nil otherwise
func (r *Rule) ActionRequestsFor(props model.Properties) []model.ActionRequest {
	for _, c := range r.conditions {
		if !c.IsMetBy(props) {
			return nil
		}
	}
	return append([]model.ActionRequest{}, r.actions...)
}
