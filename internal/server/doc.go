// Package server provides HTTP routing, middleware, and an in-process stand-in for the summarization service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// [BasicRouter] keys routes by exact path and method. A known path requested with another method gets a 405 with an
// Allow header; the response body comes from the handler set with [BasicRouter.NotAllowed].
//
// # Mock API
//
// [MockAPI] implements the four endpoints the client talks to (register, token, summarize, summaries) against
// in-memory state. It backs the package tests of the client and the `sumx mock-server` command used for local
// development. Summaries are listed newest first. Protected endpoints require a bearer token issued by the token
// endpoint and answer 401 with a "detail" body otherwise.
//
// The summarizer is deterministic: the summary of a text file is built from its leading words, so tests can
// assert on exact output.
//
// # Handler Interface
//
// Types that own several endpoints implement [Handler] and return their [Route] table, which
// [BasicRouter.Handler] registers in one call. [MockAPI] registers itself this way.
package server
