package service

import (
	"fmt"
	"strings"
)

// MappingIncompleteError reports that the column mapping does not cover the
// required fields yet.
type MappingIncompleteError struct {
	Missing []string
}

func (e *MappingIncompleteError) Error() string {
	return fmt.Sprintf("column mapping incomplete: missing %s", strings.Join(e.Missing, ", "))
}

// UnknownColumnError reports a mapping that names a header the sheet does
// not have, usually after the user re-uploaded a differently shaped file.
type UnknownColumnError struct {
	Field  string
	Header string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("mapped %s column %q not found in sheet", e.Field, e.Header)
}

// IncompleteRecordError reports a selected row that cannot be committed
// because a required assignment is missing. Nothing is written to the
// backend when any selected row is incomplete.
type IncompleteRecordError struct {
	Index int
	Title string
	Field string
}

func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("staged row %d (%q) has no %s assigned", e.Index, e.Title, e.Field)
}
