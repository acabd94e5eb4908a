package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/sumx/internal/models"
	"github.com/desertthunder/sumx/internal/session"
	"github.com/desertthunder/sumx/internal/summaries"
	"github.com/desertthunder/sumx/internal/transfer"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case AuthView:
		return m.renderAuth()
	case UploadView:
		return m.renderTabs() + "\n\n" + m.renderUpload()
	case HistoryView:
		return m.renderTabs() + "\n\n" + m.renderHistory()
	default:
		return ""
	}
}

func (m *Model) renderTabs() string {
	upload, history := styles.tab.Render("Summarize"), styles.tab.Render("History")
	if m.view == UploadView {
		upload = styles.active.Render("Summarize")
	} else {
		history = styles.active.Render("History")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, upload, history)
}

func (m *Model) renderAuth() string {
	title := "Log in"
	if m.mode == models.Register {
		title = "Create an account"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(title))
	b.WriteString("\n")
	for i := 0; i < m.fieldCount(); i++ {
		b.WriteString(m.fields[i].View())
		b.WriteString("\n")
	}

	switch {
	case m.session.Status() == models.Authenticating:
		b.WriteString("\n" + styles.muted.Render("Signing in..."))
	case m.session.Message() != "":
		style := styles.err
		if m.session.Message() == session.MsgRegistered {
			style = styles.ok
		}
		b.WriteString("\n" + style.Render(m.session.Message()))
	}

	helpKeys := []key.Binding{m.keys.submit, m.keys.next, m.keys.mode, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderUpload() string {
	var b strings.Builder

	box := styles.dropBox
	if m.transfer.DropActive() {
		box = styles.hotBox
	}
	target := "No file selected"
	if name := m.transfer.PendingName(); name != "" {
		target = "Selected: " + name
	}
	b.WriteString(box.Render(m.path.View() + "\n" + styles.muted.Render(target)))
	b.WriteString("\n")

	st := m.transfer.State()
	switch {
	case m.transfer.Busy():
		b.WriteString(fmt.Sprintf("\n%s %s\n", m.spinner.View(), transfer.MsgSummarizing))
	case st.Phase == models.Failed:
		b.WriteString("\n" + styles.err.Render("Error: "+st.Error) + "\n")
	case st.Phase == models.Succeeded:
		b.WriteString("\n" + styles.ok.Render("Summary of: "+st.FileName) + "\n")
		b.WriteString(m.viewport.View() + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + styles.warn.Render(m.notice) + "\n")
	}

	helpKeys := []key.Binding{m.keys.submit, m.keys.save, m.keys.next, m.keys.logout, m.keys.quit}
	if !m.transfer.CanSubmit() && m.transfer.Busy() {
		helpKeys = []key.Binding{m.keys.next, m.keys.quit}
	}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderHistory() string {
	var body string
	switch m.browser.State() {
	case summaries.Idle, summaries.Loading:
		body = styles.muted.Render(summaries.MsgLoading)
	case summaries.Failed:
		body = styles.err.Render("Error: " + m.browser.ErrorMessage())
	default:
		if len(m.results.Items()) == 0 {
			body = styles.muted.Render(summaries.MsgEmpty)
		} else {
			body = m.results.View()
		}
	}

	helpKeys := []key.Binding{m.keys.reload, m.keys.next, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s\n\n%s", m.query.View(), body, m.help.ShortHelpView(helpKeys))
}
