package app

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUninitializedSession is returned when saving before any document has
// been created or opened.
var ErrUninitializedSession = errors.New("no thematic map open: create or open one before saving")

// ErrNoOutputPath is returned by Save when the document has never been
// saved; use SaveAs.
var ErrNoOutputPath = errors.New("document has no file name yet")

// ErrInvalidLabel is returned when selecting a code the mapping lacks.
var ErrInvalidLabel = errors.New("label code not in the configured classes")

// ErrDocumentChanged is returned when a background load finishes after the
// document it was started for has been replaced.
var ErrDocumentChanged = errors.New("document changed while loading")

// DocumentMismatchError reports a document whose label table disagrees with
// the configured classes. The session keeps its previous document.
type DocumentMismatchError struct {
	Path        string
	Differences []string
}

func (e *DocumentMismatchError) Error() string {
	msg := fmt.Sprintf("%s: label table does not match the configured classes", e.Path)
	if len(e.Differences) > 0 {
		msg += " (" + strings.Join(e.Differences, "; ") + ")"
	}
	return msg
}
