package detector

import "fmt"

// FetchError ends a check when the page could not be retrieved.
type FetchError struct {
	Target string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Target, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// StoreError ends a check when the state store could not be read or committed.
type StoreError struct {
	Target string
	Op     string
	Err    error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s %s: %v", e.Op, e.Target, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
