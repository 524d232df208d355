package models

import (
	"fmt"
)

//UnknownDeviceTypeError is returned when a device type name does not match
//any entry in the device type catalog
type UnknownDeviceTypeError struct {
	Name string
}

func (e *UnknownDeviceTypeError) Error() string {
	return fmt.Sprintf("unknown device type %s", e.Name)
}

//MalformedIdentifierError is returned when an identifier string is not a
//syntactically valid UUID. It is always detected before any query is issued.
type MalformedIdentifierError struct {
	ID string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %s", e.ID)
}

//NotFoundError is returned when a referenced entity does not resolve to any
//stored record
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s (%s) not found", e.Entity, e.ID)
}

//DuplicateReferenceError is returned when an identifier resolves to more
//than one stored record. Identifiers are primary keys, so this indicates a
//store level integrity violation.
type DuplicateReferenceError struct {
	Entity string
	ID     string
}

func (e *DuplicateReferenceError) Error() string {
	return fmt.Sprintf("multiple %ss with identifier %s were found", e.Entity, e.ID)
}

//PersistenceError wraps a failure from the persistence layer with the
//operation that was being performed
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
	}
	return e.Op
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

//NewPersistenceError wraps err with operation context
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
