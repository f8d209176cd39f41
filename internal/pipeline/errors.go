package pipeline

import "fmt"

// ShapeMismatchError reports a classifier output vector whose length does
// not match the label catalog. Ranking never runs on mismatched output;
// an index-to-label mapping would be meaningless.
type ShapeMismatchError struct {
	Expected int
	Actual   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("classifier output length %d != label count %d", e.Actual, e.Expected)
}

// ClassifierError wraps a failure (or recovered panic) from the classifier
// invocation so callers never see a raw executor error.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier invocation failed: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }
