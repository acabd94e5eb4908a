// Package transfer drives the single-file upload and summarize lifecycle.
//
// An [Orchestrator] tracks at most one pending file. Submitting it returns a [Request] whose Run method performs
// the upload without touching orchestrator state; the resulting [Completion] is handed back to [Orchestrator.Apply].
// Each submission carries an id so a completion that arrives after the user picked another file is dropped.
//
// The orchestrator itself is not synchronized. All methods except [Request.Run] belong on one goroutine.
package transfer
