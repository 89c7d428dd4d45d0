// Package toast presents transient notifications for a page.
//
// A Stack holds the notifications shown in a page's toast container. The
// newest notification is inserted at the top. Each one walks through three
// phases:
//
//	Entering ──frame──▶ Visible ──duration──▶ Leaving ──transition──▶ detached
//
// Entering renders off-screen so the client can animate the slide-in on the
// next frame. Leaving renders the reverse animation before the notification
// is detached. Dismiss detaches a notification immediately.
//
// # Helpers
//
// Success, Error, Warning and Info work with any Notifier:
//
//	toast.Success(stack, "Lawyer added successfully!")
//	toast.Error(stack, "Something went wrong. Please try again.")
//
// # Client-Side Handler
//
// The live bridge sends the stack on every change in a message named
// EventName:
//
//	socket.addEventListener("message", (e) => {
//	    const msg = JSON.parse(e.data);
//	    if (msg.event === "counsel:toast") renderToasts(msg.toasts);
//	});
package toast
