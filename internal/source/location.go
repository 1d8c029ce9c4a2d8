package source

import "fmt"

// Location identifies a line of a source file. Jam tokens carry line
// numbers only, so a location is file + line rather than a full span.
type Location struct {
	File string
	Line int // 1-based
}

// NewLocation creates a new Location for the given file and line.
func NewLocation(file string, line int) Location {
	return Location{File: file, Line: line}
}

func (l Location) String() string {
	if l.Line <= 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}
