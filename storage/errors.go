package storage

import "fmt"

type notFoundError struct {
	entity string
	key    string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.entity, e.key)
}

// NotFound marks the error for handler-level 404 mapping.
func (notFoundError) NotFound() {}

type alreadyExistsError struct {
	entity string
	key    string
}

func (e alreadyExistsError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.entity, e.key)
}

// AlreadyExists marks the error for handler-level conflict mapping.
func (alreadyExistsError) AlreadyExists() {}
