package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sumx/internal/session"
	"github.com/desertthunder/sumx/internal/summaries"
	"github.com/desertthunder/sumx/internal/transfer"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgExchangeDone MsgKind = iota
	MsgUploadDone
	MsgListingDone
)

// exchangeDoneMsg is the constructor for [MsgExchangeDone]
func exchangeDoneMsg(res session.ExchangeResult) Msg {
	return Msg{kind: MsgExchangeDone, data: res}
}

// uploadDoneMsg is the constructor for [MsgUploadDone]
func uploadDoneMsg(c transfer.Completion) Msg {
	return Msg{kind: MsgUploadDone, data: c}
}

// listingDoneMsg is the constructor for [MsgListingDone]
func listingDoneMsg(res summaries.FetchResult) Msg {
	return Msg{kind: MsgListingDone, data: res}
}
