// Package toggle shows and hides page sections and owns the inputs inside
// them.
//
// A Set holds independent sections. Each section has an active flag and any
// number of input groups (checkbox groups or radio groups). Hiding a section
// clears every input inside it, so a hidden section never carries a selection
// into a submission. Revealing a section selects nothing.
//
// Groups may declare a default option. Init applies defaults once, at mount,
// to active groups that have nothing selected. Toggling never re-applies them.
package toggle
