// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI has three views:
//  1. [AuthView] : Log in or register. Shown whenever the session is not authenticated.
//  2. [UploadView] : Pick a file by typing or pasting its path, submit it, read and save the summary
//  3. [HistoryView] : Browse and filter previously generated summaries
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg
// union type. Network calls run inside commands that only return a Msg; session, transfer and listing state are
// only changed from Update.
//
// Pasting one or more paths into the upload view counts as dropping those files: the first one becomes the pending
// file. Most terminals paste a dragged file's path, so dragging a file onto the window works the same way.
//
// Keyboard bindings are control keys so they never collide with text typed into an input; contextual help is
// displayed via charmbracelet/bubbles/help.
package ui
