// Package services implements the HTTP client for the remote summarization service.
//
// # Endpoints
//
// [APIService] wraps the four calls the client makes:
//   - [APIService.ObtainToken] : POST /api/auth/token/ exchanging username and password for an access/refresh pair
//   - [APIService.Register] : POST /api/auth/register/ creating an account (no tokens are returned)
//   - [APIService.Summarize] : POST /api/summarize/ with a multipart "file" field
//   - [APIService.ListSummaries] : GET /api/summaries/
//
// # Authorization
//
// Protected calls take an [oauth2.TokenSource]. When the source yields a token its bearer header is attached;
// when it yields nothing the request goes out unauthenticated and the service decides whether to reject it.
//
// # Error Handling
//
// Failures are classified with sentinels from the shared package:
//   - [shared.ErrTransport] : no response was received (connection failure, timeout, canceled context)
//   - [shared.ErrDecode] : a 2xx response whose body could not be decoded
//   - [APIError] : a non-2xx response; unwraps to [shared.ErrUnauthorized] for 401 and [shared.ErrAPIRequest] otherwise
//
// The human-readable detail of an error response is read with gjson, so bodies that are not JSON simply yield no detail.
//
// # Pacing
//
// Every request waits on a [rate.Limiter] before it is sent.
package services
