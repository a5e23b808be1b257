// Package web assembles the browser-facing campaign forge service.
//
// The root handler mounts the feature modules in two groups. Public modules
// (sign-in and the standalone pages) render in the bare document shell;
// protected modules under /app/ require a session cookie and render under
// the navigation chrome. Every request passes through the same middleware
// chain, which installs the request id, language, session cookie jar, and
// per-request principal memo that the modules read.
package web
