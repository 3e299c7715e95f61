package types

import "fmt"

// Operation selects how a file is transferred into the target tree.
type Operation string

const (
	// Copy duplicates the file into the target, preserving metadata.
	Copy Operation = "copy"
	// Move transfers the file into the target and removes the source.
	Move Operation = "move"
)

// ParseOperation converts user input into an Operation.
func ParseOperation(s string) (Operation, error) {
	switch Operation(s) {
	case Copy:
		return Copy, nil
	case Move:
		return Move, nil
	default:
		return "", fmt.Errorf("unknown operation %q (want %q or %q)", s, Copy, Move)
	}
}
