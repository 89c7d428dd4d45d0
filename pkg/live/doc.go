// Package live hosts catalogue pages over WebSocket.
//
// Each connection runs one page on its own event loop. The client sends
// JSON messages:
//
//	{"kind": "mount", "values": {...}, "rows": [...]}
//	{"kind": "event", "event": {"type": "input", "field": "email", "value": "a@b.c"}}
//
// and receives a view snapshot after every state change:
//
//	{"kind": "view", "view": {...}}
//	{"kind": "error", "error": {"code": "C301", "message": "Unknown field"}}
//
// Notification text is sanitised before it leaves the host.
package live
