// Package pref persists small client preferences.
//
// Two kinds of state are kept:
//
//   - Long-lived preferences such as the last used filter of a dashboard
//     table. A Pref[T] is bound to a Store; a FileStore keeps them in a JSON
//     file across restarts.
//   - Session-scoped one-shot values such as a scroll position. SaveOnce
//     stores a value and TakeOnce returns it once and removes it.
//
// Example:
//
//	store, _ := pref.OpenFile("prefs.json")
//	filters := pref.New("contentFilters", Filters{Kind: "all"}, pref.Persist(store))
//	filters.Set(Filters{Kind: "news", Query: "court"})
package pref
