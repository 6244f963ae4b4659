package store

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// Class is how the connector and repository treat a store error.
type Class int

const (
	// ClassUnknown errors are not in any table. They are treated as fatal
	// and never retried.
	ClassUnknown Class = iota
	// ClassTransient errors may succeed if the operation is tried again later.
	ClassTransient
	// ClassFatal errors mean the session or its configuration is unusable.
	ClassFatal
	// ClassNotFound is the store's "no such key" condition.
	ClassNotFound
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassFatal:
		return "fatal"
	case ClassNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Classifier maps an error reported by a store to a Class.
type Classifier func(err error) Class

// ErrorRule maps one store error value to a class.
type ErrorRule struct {
	Err   error
	Class Class
}

// TableClassifier builds a Classifier that matches err against rules in order
// using errors.Is. Context expiry, refused connections and network timeouts
// are always transient.
// Extra matchers run after the table, for errors that are not comparable values.
func TableClassifier(rules []ErrorRule, extra ...Classifier) Classifier {
	return func(err error) Class {
		if err == nil {
			return ClassUnknown
		}

		for _, rule := range rules {
			if errors.Is(err, rule.Err) {
				return rule.Class
			}
		}

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ClassTransient
		}

		if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
			return ClassTransient
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ClassTransient
		}

		for _, match := range extra {
			if class := match(err); class != ClassUnknown {
				return class
			}
		}

		return ClassUnknown
	}
}
