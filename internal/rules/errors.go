package rules

import "errors"

// Domain errors for the rules package.
//
// Per-rule and per-action problems are contained during parsing and building
// (skipped with diagnostics); only document-level problems surface as errors
// from ParseDocument and the store. Check with errors.Is().
var (
	// ErrDocumentTooLarge is returned when a rule document exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("rules: document exceeds maximum size")

	// ErrMalformedDocument is returned when the top-level JSON value is not
	// an array of automation objects.
	ErrMalformedDocument = errors.New("rules: document is not a JSON array")

	// ErrEmptyDocument is returned when attempting to persist an empty document.
	ErrEmptyDocument = errors.New("rules: document is empty")

	// ErrStoreMiss is returned by a DocumentStore when no document has been
	// persisted yet. This is a soft condition, not a failure.
	ErrStoreMiss = errors.New("rules: no stored document")

	// ErrRuleNotFound is returned when a rule ID does not exist in the
	// currently loaded set.
	ErrRuleNotFound = errors.New("rules: rule not found")

	// ErrEntityNotFound is returned by the factory when a referenced entity
	// identifier does not resolve.
	ErrEntityNotFound = errors.New("rules: entity not found")

	// ErrUnsupportedTrigger is returned for trigger source/type combinations
	// outside the supported set. This is a designed limitation: only input
	// press/release triggers exist.
	ErrUnsupportedTrigger = errors.New("rules: unsupported trigger kind")

	// ErrUnsupportedAction is returned for action source/type combinations
	// outside the supported set.
	ErrUnsupportedAction = errors.New("rules: unsupported action kind")
)
