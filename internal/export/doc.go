// Package export runs one withdrawal history export: it walks the history
// page by page, filters each page and streams the survivors to a writer.
//
// A run either completes or fails. On failure the output is still flushed
// and closed, so it holds every page written before the error.
package export
