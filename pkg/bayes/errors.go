package bayes

import "errors"

var (
	// ErrInvalidPrior is returned when a supplied prior has a non-positive
	// pseudo-count or does not match the model's state count. Priors are
	// rejected at set time and never silently clamped.
	ErrInvalidPrior = errors.New("bayes: invalid prior")

	// ErrInvalidState is returned when an observed chain contains a state
	// outside [0, K). The failure is reported before any counts are
	// accumulated, so no partial posterior is ever produced.
	ErrInvalidState = errors.New("bayes: observed state out of range")

	// ErrEmptyChain is returned for a zero-length chain; an initial-state
	// observation is mandatory.
	ErrEmptyChain = errors.New("bayes: empty chain")

	// ErrInvalidDimension is returned for non-positive chain lengths or
	// state counts at construction, and for chains whose length does not
	// match the model's configured length.
	ErrInvalidDimension = errors.New("bayes: invalid dimension")
)
