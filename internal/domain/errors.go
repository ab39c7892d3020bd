package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexNotFound signals an unknown indice.
	ErrIndexNotFound = errors.New("index not found")
	// ErrDocumentMissing signals an update against an absent document.
	ErrDocumentMissing = errors.New("document missing")
	// ErrAlreadyExists signals a duplicate indice or a create-only conflict.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidIndexName signals an illegal indice name.
	ErrInvalidIndexName = errors.New("invalid index name")
	// ErrMapperParsing signals a malformed mapping declaration.
	ErrMapperParsing = errors.New("mapper parsing")
	// ErrTypeConflict signals an attempted type change on an existing field.
	ErrTypeConflict = errors.New("mapper type conflict")
	// ErrStrictDynamicMapping signals a dynamic field under strict policy.
	ErrStrictDynamicMapping = errors.New("strict dynamic mapping")
	// ErrParsing signals a malformed value or query shape.
	ErrParsing = errors.New("parsing")
	// ErrNumberFormat signals a malformed numeric input.
	ErrNumberFormat = errors.New("number format")
	// ErrDateTimeParse signals a malformed date input.
	ErrDateTimeParse = errors.New("date time parse")
	// ErrIllegalArgument signals an illegal parameter value.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrQueryShard signals a query kind unsupported for the field's type.
	ErrQueryShard = errors.New("query shard")
	// ErrScript signals a scripting collaborator failure.
	ErrScript = errors.New("script")
)

// IndexNotFound builds an ErrIndexNotFound for the named indice.
func IndexNotFound(name string) error {
	return fmt.Errorf("no such index [%s]: %w", name, ErrIndexNotFound)
}

// IndexAlreadyExists builds an ErrAlreadyExists for a duplicate indice.
func IndexAlreadyExists(name string) error {
	return fmt.Errorf("index [%s] already exists: %w", name, ErrAlreadyExists)
}

// InvalidIndexName builds an ErrInvalidIndexName with a reason.
func InvalidIndexName(name, reason string) error {
	return fmt.Errorf("Invalid index name [%s], %s: %w", name, reason, ErrInvalidIndexName)
}

// DocumentMissing builds an ErrDocumentMissing for a document id.
func DocumentMissing(docType, id string) error {
	return fmt.Errorf("[%s][%s]: %w", docType, id, ErrDocumentMissing)
}

// MapperParsing builds an ErrMapperParsing with a reason.
func MapperParsing(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrMapperParsing)...)
}

// Parsing builds an ErrParsing with a reason.
func Parsing(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrParsing)...)
}

// IllegalArgument builds an ErrIllegalArgument with a reason.
func IllegalArgument(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrIllegalArgument)...)
}

// VersionConflict builds an ErrAlreadyExists for a create against an
// existing document.
func VersionConflict(id string, version int64) error {
	return fmt.Errorf(
		"[%s]: version conflict, document already exists (current version [%d]): %w",
		id, version, ErrAlreadyExists,
	)
}

// TypeConflict builds an ErrTypeConflict for an attempted mapper type change.
func TypeConflict(path, from, to string) error {
	return fmt.Errorf("mapper [%s] cannot be changed from type [%s] to [%s]: %w", path, from, to, ErrTypeConflict)
}

// StrictDynamicMapping builds an ErrStrictDynamicMapping for a field
// introduced under a strict object.
func StrictDynamicMapping(path, parent string) error {
	return fmt.Errorf(
		"mapping set to strict, dynamic introduction of [%s] within [%s] is not allowed: %w",
		path, parent, ErrStrictDynamicMapping,
	)
}

// DateTimeParse builds an ErrDateTimeParse with a reason.
func DateTimeParse(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDateTimeParse)...)
}

// QueryShard builds an ErrQueryShard naming the field, its type and the query kind.
func QueryShard(field, fieldType, queryKind string) error {
	return fmt.Errorf(
		"field [%s] is of unsupported type [%s] for [%s] query: %w",
		field, fieldType, queryKind, ErrQueryShard,
	)
}
