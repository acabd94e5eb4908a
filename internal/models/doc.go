// Package models defines the client-side data model for the sumx summarization client.
//
// The package contains two categories of types:
//
// 1. Session state, owned by the session manager and read by everything else
//   - [Status] : Unauthenticated, Authenticating or Authenticated
//   - [Credentials] : Login or registration input, validated before any network call
//
// 2. Transfer and listing state
//   - [PendingFile] : The single file selected for upload, read lazily
//   - [TransferState] : Phase of the upload lifecycle with its summary or error
//   - [SummaryRecord] : A previously generated summary as returned by the service
//
// Tokens are carried as [oauth2.Token] values so the same type can set the bearer header on outgoing requests.
package models
