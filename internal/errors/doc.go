// Package errors provides structured, actionable error values for counsel.
//
// Every error carries a code (e.g. "C101") that maps to a registered
// template with a category, a short message and a longer explanation.
// Controllers return these values so callers can branch on the category
// while the CLI prints them with Format.
//
// # Error Categories
//
//   - validation: user input rejected before any network call
//   - transport: the request never completed or the server said no
//   - dom: an event referenced an element the page does not have
//   - config: configuration or page catalogue problems
//   - cli: command-line usage errors
//
// # Usage
//
//	err := errors.New("C201").Wrap(cause)
//	if errors.IsCategory(err, errors.CategoryTransport) {
//	    toast.Error(stack, "Failed to save. Please try again.")
//	}
package errors
