/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned by drivers when a record or table is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create something that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig is returned when a storage configuration is missing required fields
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedKey is returned when a key or table name has more than one separator
	ErrMalformedKey = errors.New("malformed key")

	// ErrAuthentication is returned when the identity provider rejects a request
	ErrAuthentication = errors.New("authentication failed")

	// ErrAccountNotFound is returned when the named account or its keys cannot be found
	ErrAccountNotFound = errors.New("storage account not found")

	// ErrConnection is returned when a backing-store client cannot be built
	ErrConnection = errors.New("connection failed")

	// ErrBatch is returned when one or more items of a batch operation failed
	ErrBatch = errors.New("batch operation failed")

	// ErrQueryExecution is returned when a query page could not be fetched
	ErrQueryExecution = errors.New("query execution failed")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigurationError collects every field-level problem found while validating a configuration.
type ConfigurationError struct {
	Config string
	Errors []*ValidationError
}

func (e *ConfigurationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		msgs = append(msgs, v.Error())
	}
	return fmt.Sprintf("invalid %s configuration: %s", e.Config, strings.Join(msgs, "; "))
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (e *ConfigurationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Errors))
	for _, v := range e.Errors {
		errs = append(errs, v)
	}
	return errs
}

// MalformedKeyError is raised for keys and table names with more than one separator.
type MalformedKeyError struct {
	Key        string
	Separators int
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("key %q cannot be parsed: found %d separators, at most one is allowed", e.Key, e.Separators)
}

func (e *MalformedKeyError) Is(target error) bool {
	return target == ErrMalformedKey
}

// AuthenticationError is raised when no usable token could be acquired.
type AuthenticationError struct {
	Instance string
	Method   string
	Err      error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not authenticate %s using %s: %v", e.Instance, e.Method, e.Err)
	}
	return fmt.Sprintf("could not authenticate %s using %s: empty token", e.Instance, e.Method)
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// AccountNotFoundError is raised when credential resolution cannot find the named
// account, or the account has no access keys.
type AccountNotFoundError struct {
	Instance string
	What     string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("could not find %s for storage instance %q", e.What, e.Instance)
}

func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

// ConnectionError is raised when the backing-store client cannot be constructed.
type ConnectionError struct {
	Instance string
	Err      error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot build client for %q: %v", e.Instance, e.Err)
	}
	return fmt.Sprintf("cannot build client for %q: no client returned", e.Instance)
}

func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ItemError is the failure of one item in a batch.
type ItemError struct {
	Index int
	Key   string
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Key, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// AggregateBatchError carries every per-item failure of a batch operation.
type AggregateBatchError struct {
	Op       string
	Table    string
	Total    int
	Failures []ItemError
}

func (e *AggregateBatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s on table %q: %d/%d items failed", e.Op, e.Table, len(e.Failures), e.Total)
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *AggregateBatchError) Is(target error) bool {
	return target == ErrBatch
}

func (e *AggregateBatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// QueryExecutionError wraps a store failure raised while paging through a query.
type QueryExecutionError struct {
	Table string
	Query string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query on table %q failed: %v", e.Table, e.Err)
}

func (e *QueryExecutionError) Is(target error) bool {
	return target == ErrQueryExecution
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewConfigurationError creates a ConfigurationError, or returns nil when there is nothing to report.
func NewConfigurationError(config string, errs []*ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	return &ConfigurationError{Config: config, Errors: errs}
}

// NewMalformedKeyError creates a new MalformedKeyError
func NewMalformedKeyError(key string, separators int) error {
	return &MalformedKeyError{Key: key, Separators: separators}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsMalformedKey checks if an error is a malformed key error
func IsMalformedKey(err error) bool {
	return errors.Is(err, ErrMalformedKey)
}

// IsAuthentication checks if an error is an authentication error
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsAccountNotFound checks if an error is an account lookup error
func IsAccountNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// IsConnection checks if an error is a connection error
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsBatch checks if an error is an aggregate batch error
func IsBatch(err error) bool {
	return errors.Is(err, ErrBatch)
}

// IsQueryExecution checks if an error is a query execution error
func IsQueryExecution(err error) bool {
	return errors.Is(err, ErrQueryExecution)
}
