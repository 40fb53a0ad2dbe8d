// Package console renders plans and validation results for the operator and
// reads the import confirmation.
//
// Nested listings use a two-space margin:
//
//	Missing dependencies:
//	  - Folder [T1/F1]:
//	    - Folder [T1/Parent]
//
// Operation symbols are colored with lipgloss when the output is a
// terminal.
package console
