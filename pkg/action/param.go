package action

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
)

var (
	ErrMissingParameter  = goerr.New("missing action parameter")
	ErrUndefinedProperty = goerr.New("undefined property")
	ErrMissingTarget     = goerr.New("missing action target")
)

// requireParams fails unless req has at least n parameters
func requireParams(req model.ActionRequest, n int) error {
	if len(req.Parameters()) < n {
		return goerr.Wrap(ErrMissingParameter, "not enough parameters",
			goerr.V("action", req.Name()),
			goerr.V("required", n),
			goerr.V("request", req.Unparsed()),
		)
	}
	return nil
}

// propertyValue resolves a property named by a parameter
func propertyValue(req model.ActionRequest, props model.Properties, key string) (string, error) {
	v, ok := props.Get(key)
	if !ok || v == "" {
		return "", goerr.Wrap(ErrUndefinedProperty, "property is not set",
			goerr.V("action", req.Name()),
			goerr.V("property", key),
		)
	}
	return v, nil
}

func requireTarget(req model.ActionRequest, target string) error {
	if target == "" {
		return goerr.Wrap(ErrMissingTarget, "no target for action",
			goerr.V("action", req.Name()),
		)
	}
	return nil
}
