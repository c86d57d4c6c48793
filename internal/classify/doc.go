// Package classify provides classifiers for text records.
//
// Each constructor returns a fork.ClassifyFunc[string, string, string]:
// the record is a line (or chunk) of text, the destination is a name and
// the payload is text.
package classify
