package model

import "strings"

// ActionRequest is one "action" line of a matched rule, not yet executed
type ActionRequest struct {
	unparsed string
	tokens   []string
}

// NewActionRequest tokenizes an action line on whitespace
func NewActionRequest(line string) ActionRequest {
	return ActionRequest{
		unparsed: line,
		tokens:   strings.Fields(line),
	}
}

// Name returns the action name (first token)
func (r ActionRequest) Name() string {
	if len(r.tokens) == 0 {
		return ""
	}
	return r.tokens[0]
}

// Parameter returns the n-th parameter, 1-based. Out of range yields "".
func (r ActionRequest) Parameter(n int) string {
	if n < 1 || n >= len(r.tokens) {
		return ""
	}
	return r.tokens[n]
}

// Parameters returns a copy of all parameters
func (r ActionRequest) Parameters() []string {
	if len(r.tokens) < 2 {
		return []string{}
	}
	return append([]string(nil), r.tokens[1:]...)
}

// Unparsed returns the action line as written
func (r ActionRequest) Unparsed() string {
	return r.unparsed
}

func (r ActionRequest) String() string {
	return r.unparsed
}
