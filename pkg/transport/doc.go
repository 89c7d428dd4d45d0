// Package transport submits page forms to the portal's HTTP endpoints.
//
// A Sender posts a form-encoded body and reports an Outcome. Any 2xx status
// is success. Any other status, or a transport failure, is failure. The
// status is not inspected further.
//
// HTTPSender performs the request on its own goroutine and dispatches the
// callback back onto the page's event loop, so callbacks never race with
// other page mutations.
package transport
