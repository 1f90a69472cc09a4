// Package rule implements the declarative condition/rule matcher over event properties.
package rule

import (
	"strings"

	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

const negationToken = "!"

// Condition tests one property against a set of accepted values
type Condition struct {
	key     string
	values  map[string]struct{}
	negated bool
}

// NewCondition parses a comma separated value spec. A leading "!" token negates it.
func NewCondition(key, spec string) *Condition {
	c := &Condition{
		key:    strings.ToLower(strings.TrimSpace(key)),
		values: make(map[string]struct{}),
	}

	tokens := strings.Split(spec, ",")
	if len(tokens) > 0 && strings.TrimSpace(tokens[0]) == negationToken {
		c.negated = true
		tokens = tokens[1:]
	}

	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		c.values[t] = struct{}{}
	}

	return c
}

func (c *Condition) Key() string   { return c.key }
func (c *Condition) Negated() bool { return c.negated }

// Values returns the accepted values in no particular order
func (c *Condition) Values() []string {
	out := make([]string, 0, len(c.values))
	for v := range c.values {
		out = append(out, v)
	}
	return out
}

// IsMetBy checks the condition against properties. The property value is split on
// whitespace and any shared token satisfies a plain condition.
func (c *Condition) IsMetBy(props model.Properties) bool {
	raw, _ := props.Get(c.key)

	hit := false
	for _, token := range strings.Fields(raw) {
		if _, ok := c.values[token]; ok {
			hit = true
			break
		}
	}

	return hit != c.negated
}
