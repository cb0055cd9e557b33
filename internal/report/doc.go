// Package report renders lookup results for people and for tools.
//
// SimpleWriter prints a terminal summary, JSONWriter emits the response
// envelope unchanged, and MarkdownWriter produces a document suited to
// sharing. All of them implement Writer, so the CLI picks one per run and
// MultiWriter fans the same results out to several destinations.
package report
