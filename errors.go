package controls

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKeyPrefix       = errors.New("controls: persistence key prefix must not contain \":\"")
	ErrUnknownColumn          = errors.New("controls: unknown column key")
	ErrDuplicateColumn        = errors.New("controls: duplicate column key")
	ErrDuplicateCategory      = errors.New("controls: duplicate filter category key")
	ErrInvalidFilterType      = errors.New("controls: invalid filter type")
	ErrMissingItemID          = errors.New("controls: GetItemID is required")
	ErrMissingItemFields      = errors.New("controls: ItemFields is required by filter expressions")
	ErrPersistenceUnavailable = errors.New("controls: persistence target has no backing store")
	ErrUnknownFeature         = errors.New("controls: unknown feature")
	ErrInvalidExpression      = errors.New("controls: invalid filter expression")
	ErrInvalidVariant         = errors.New("controls: invalid expansion variant")
	ErrInvalidOption          = errors.New("controls: invalid option")
	ErrNoEvaluator            = errors.New("controls: evaluator not configured")
	ErrJSEvaluatorUnavailable = errors.New("controls: js filter expressions require the js_eval build tag")

	// Runtime errors returned by setters.
	ErrColumnNotSortable = errors.New("controls: column is not sortable")
	ErrInvalidDirection  = errors.New("controls: sort direction must be asc or desc")
)

// ConfigError reports an invalid configuration detected by New.
type ConfigError struct {
	Table   string
	Feature Feature
	Field   string
	Err     error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "controls: config"
	if e.Table != "" {
		msg += fmt.Sprintf(" table=%q", e.Table)
	}
	if e.Feature != "" {
		msg += fmt.Sprintf(" feature=%s", e.Feature)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field=%s", e.Field)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func configError(table string, feature Feature, field string, err error) error {
	return &ConfigError{Table: table, Feature: feature, Field: field, Err: err}
}
