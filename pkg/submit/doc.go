// Package submit implements the submission lifecycle of a page's submit
// control.
//
// A Controller moves through three phases:
//
//	Idle ──Begin──▶ Submitting ──Resolve / safety timeout──▶ Settled ──▶ Idle
//
// While Submitting the button is disabled and shows its busy label. The
// attempt settles on whichever comes first: the response callback or the
// safety timeout. The safety timer is never cancelled. When it fires for an
// attempt that already settled it does nothing, so a control can never stay
// disabled forever and a late timer can never disturb a newer attempt.
package submit
