// Package form validates page forms before they are submitted.
//
// # Overview
//
// A Schema is an ordered list of fields, each with an ordered list of
// validators. Validate walks fields and validators in declaration order
// and stops at the first failure, so the user only ever sees one message
// at a time:
//
//	schema := form.NewSchema().
//	    Field("email", form.Required("Please enter your email address"), form.Email("")).
//	    Field("password", form.Required(""), form.MinLength(6, "Password must be at least 6 characters")).
//	    Field("confirm_password", form.EqualTo("password", "Passwords do not match"))
//
//	res := schema.Validate(values)
//	if !res.Valid {
//	    state.MarkInvalid(res.Field, res.Message)
//	    return
//	}
//
// # Empty values
//
// Whitespace-only input counts as empty. Only Required (and Checked for
// groups) fail on empty input; every other validator passes it, so empty
// optional fields never block a submission.
//
// # Rule strings
//
// Schemas can also be built from compact rule strings, which is how the
// page catalogue declares them:
//
//	validators, err := form.ParseRules("required,min=6,eq=password", nil)
//
// # State
//
// State holds the transient FormState of a page: current values, the dirty
// and submitting flags, and the per-field error indicators.
package form
