// Package page composes the form validator, submission lifecycle,
// notification stack and section toggles into one controller per page.
//
// Pages are declared in a YAML catalogue:
//
//	pages:
//	  - name: user_login
//	    endpoint: /login
//	    submit_label: Sign In
//	    busy_label: Signing In...
//	    fields:
//	      - name: email
//	        rules: required,email
//
// A Page is driven by Events and renders to a View. It must only be used
// from its scheduler's loop:
//
//	p, _ := page.New(def, page.Deps{Scheduler: loop, Sender: sender})
//	p.Mount(page.MountOptions{Query: r.URL.Query()})
//	p.OnChange(func(v page.View) { send(v) })
//	p.Handle(ctx, page.Event{Type: page.EventSubmit})
package page
