package exprgraph

import "fmt"

// DeserializeErrorKind classifies a deserialisation failure.
type DeserializeErrorKind string

const (
	BadMagic           DeserializeErrorKind = "BadMagic"
	Truncated          DeserializeErrorKind = "Truncated"
	BadOpcode          DeserializeErrorKind = "BadOpcode"
	BadMetadata        DeserializeErrorKind = "BadMetadata"
	BadIndex           DeserializeErrorKind = "BadIndex"
	UnknownOracleTag   DeserializeErrorKind = "UnknownOracleTag"
	MissingTerminator  DeserializeErrorKind = "MissingTerminator"
	OracleDecodeFailed DeserializeErrorKind = "OracleDecodeFailed"
)

// DeserializeError reports a malformed byte stream: what went wrong, the
// byte offset at which it was detected, and (for oracle-clause failures)
// the clause codec's own error, wrapped rather than swallowed.
type DeserializeError struct {
	Kind    DeserializeErrorKind
	Offset  int64
	Message string
	Err     error
}

func (e *DeserializeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exprgraph: deserialize: %s at offset %d: %s: %v", e.Kind, e.Offset, e.Message, e.Err)
	}
	return fmt.Sprintf("exprgraph: deserialize: %s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func (e *DeserializeError) Unwrap() error { return e.Err }
