package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("invalid input")
	ErrAuth       = errors.New("access denied")
	ErrNotFound   = errors.New("not found")
	ErrTransport  = errors.New("store unavailable")
)

// ValidationError reports malformed input caught before any store call
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StoreError is a store rejection or failure, classified by Kind (one of the sentinels)
type StoreError struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *StoreError) Error() string {
	target := e.Key
	if target == "" {
		target = "bucket"
	}
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s %s: %v", e.Op, target, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s %s: %v", e.Op, target, e.Err)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, target, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() []error {
	errs := []error{}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// IsRetryable returns true if error should trigger a retry
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport)
}

// Kind returns the sentinel classifying err, or nil when it is unclassified
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrAuth, ErrNotFound, ErrTransport} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func storeErr(op, key string, kind, err error) error {
	return &StoreError{Op: op, Key: key, Kind: kind, Err: err}
}
