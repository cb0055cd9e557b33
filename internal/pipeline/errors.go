package pipeline

import "errors"

// Step failures, mapped to envelope messages by Checker.
var (
	// ErrNoResultURL is returned by QueryStep when no usable result URL was obtained.
	ErrNoResultURL = errors.New("can not get fines url")

	// ErrNoSession is returned by QueryStep when a result URL came without a session.
	ErrNoSession = errors.New("can not get session id")

	// ErrNoFinesData is returned by ParseStep when the result page never
	// reached a final state.
	ErrNoFinesData = errors.New("can not get fines data")
)
