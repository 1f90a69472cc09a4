package rule

import (
	"io"
	"strings"

	format "github.com/go-git/go-git/v5/plumbing/format/config"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

const (
	ruleSection = "rule"
	actionKey   = "action"
)

// Parse reads rules in git-config syntax:
//
//	[rule "closeOnMerge"]
//	    event-type = change-merged
//	    association = footer-Closes
//	    action = add-standard-comment
//	    action = close
//
// Rules keep their declaration order. Each value line of a non-action key becomes its
// own condition.
func Parse(r io.Reader) ([]*Rule, error) {
	cfg := format.New()
	if err := format.NewDecoder(r).Decode(cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to decode rule config")
	}

	var rules []*Rule
	for _, section := range cfg.Sections {
		if !section.IsName(ruleSection) {
			continue
		}

		for _, sub := range section.Subsections {
			var (
				conditions []*Condition
				actions    []model.ActionRequest
			)
			for _, opt := range sub.Options {
				if strings.EqualFold(opt.Key, actionKey) {
					actions = append(actions, model.NewActionRequest(opt.Value))
					continue
				}
				conditions = append(conditions, NewCondition(opt.Key, opt.Value))
			}
			rules = append(rules, New(sub.Name, conditions, actions))
		}
	}

	return rules, nil
}

// ParseString is Parse over an in-memory config
func ParseString(s string) ([]*Rule, error) {
	return Parse(strings.NewReader(s))
}
