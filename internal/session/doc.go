// Package session owns the authentication state and the bearer token shared by the rest of the client.
//
// A [Manager] moves between three states:
//
//	Unauthenticated -> Authenticating   credentials submitted
//	Authenticating  -> Authenticated    login exchange returned tokens (persisted first)
//	Authenticating  -> Unauthenticated  exchange failed, or a registration succeeded
//	Authenticated   -> Unauthenticated  logout, or a protected call came back 401
//
// The network exchange is split into [Manager.Begin], [Exchange.Run] and [Manager.Complete] so an event loop can
// run the request off-loop and apply the result on-loop. [Manager.SubmitCredentials] chains the three for callers
// that can block.
package session
