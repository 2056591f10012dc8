// Package auth authenticates client requests to the license server.
//
// A client signs its JSON payload with a shared secret: every field except
// "signature" is serialized canonically (keys sorted, no HTML escaping) and
// run through HMAC-SHA256. The server recomputes the MAC, compares it in
// constant time, rejects timestamps outside the replay window, and remembers
// used signatures so the same request cannot be submitted twice.
package auth
