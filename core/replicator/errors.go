package replicator

import "errors"

var (
	ErrSourceNotAnalyzed     = errors.New("source graph missing: analyze the source environment first")
	ErrNoPatternsDetected    = errors.New("no architectural patterns detected in source")
	ErrInvalidCoverageWeight = errors.New("node coverage weight must be in [0, 1]")
)
