package tui

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loganshamberger/whatidid/internal/store"
)

// auditLabel marks pages whose content or labels were touched through an
// interactive edit session.
const auditLabel = "human-edited"

type editKind int

const (
	editContent editKind = iota
	editLabels
)

// editSession is one external-editor invocation: the page snapshot it was
// opened against, the scratch file, and its original bytes.
type editSession struct {
	kind    editKind
	pageID  string
	version int64
	path    string
	before  []byte
}

type editorDoneMsg struct {
	err error
}

func editorName() string {
	if v := strings.TrimSpace(os.Getenv("VISUAL")); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv("EDITOR")); v != "" {
		return v
	}
	return "vi"
}

// beginEdit re-reads the page so the session snapshots the freshest
// version, serializes it to a scratch file, and returns the session plus
// the editor command to run while the TUI is suspended.
func (n *navigator) beginEdit(ctx context.Context, kind editKind) (*editSession, *exec.Cmd, error) {
	it, ok := n.current()
	if !ok || it.kind == itemSpace {
		return nil, nil, nil
	}

	page, err := n.st.GetPage(ctx, it.page.ID)
	if err != nil {
		return nil, nil, err
	}

	var body string
	var pattern string
	switch kind {
	case editContent:
		body = page.Content
		pattern = "whatidid-*.md"
	case editLabels:
		body = strings.Join(page.Labels, "\n")
		if body != "" {
			body += "\n"
		}
		pattern = "whatidid-labels-*.txt"
	}

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, nil, err
	}
	path := f.Name()
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, nil, err
	}

	session := &editSession{
		kind:    kind,
		pageID:  page.ID,
		version: page.Version,
		path:    path,
		before:  []byte(body),
	}

	args := strings.Fields(editorName())
	if len(args) == 0 {
		args = []string{"vi"}
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	return session, cmd, nil
}

// execEditor suspends the bubbletea program for the editor process; the
// program restores raw mode and the alt screen when it returns.
func execEditor(cmd *exec.Cmd) tea.Cmd {
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorDoneMsg{err: err}
	})
}

// finishEdit reconciles one editor return. A failed editor or an untouched
// file changes nothing. Content edits save with the snapshot version as the
// guard: a conflict renders an explicit message and discards the edit.
// Label edits replace the set unconditionally. Either way a successful save
// adds the audit label. The scratch file is removed on every path.
func (n *navigator) finishEdit(ctx context.Context, s *editSession, execErr error) {
	if s == nil {
		return
	}
	defer func() { _ = os.Remove(s.path) }()

	if execErr != nil {
		n.notice = "Editor failed: " + execErr.Error()
		return
	}

	after, err := os.ReadFile(s.path)
	if err != nil {
		n.notice = "Could not read edited file: " + err.Error()
		return
	}
	if bytes.Equal(after, s.before) {
		return
	}

	switch s.kind {
	case editContent:
		n.saveContent(ctx, s, string(after))
	case editLabels:
		n.saveLabels(ctx, s, string(after))
	}
}

func (n *navigator) saveContent(ctx context.Context, s *editSession, content string) {
	expected := s.version
	_, err := n.st.UpdatePage(ctx, s.pageID, store.UpdatePageParams{
		Content:         &content,
		ExpectedVersion: &expected,
	})
	if err != nil {
		if vc, ok := store.IsVersionConflict(err); ok {
			n.notice = fmt.Sprintf(
				"Edit conflict: the page changed while you were editing (expected version %d, found %d). Your edit was not saved.",
				vc.Expected, vc.Actual)
			return
		}
		n.notice = "Save failed: " + err.Error()
		return
	}
	if err := n.st.AddLabel(ctx, s.pageID, auditLabel); err != nil {
		n.notice = "Saved, but audit label failed: " + err.Error()
		return
	}
	n.notice = ""
	_ = n.reload(ctx)
}

func (n *navigator) saveLabels(ctx context.Context, s *editSession, body string) {
	labels := parseLabelFile(body)
	if err := n.st.SetLabels(ctx, s.pageID, labels); err != nil {
		n.notice = "Label save failed: " + err.Error()
		return
	}
	if err := n.st.AddLabel(ctx, s.pageID, auditLabel); err != nil {
		n.notice = "Saved, but audit label failed: " + err.Error()
		return
	}
	n.notice = ""
	_ = n.reload(ctx)
}

// parseLabelFile reads one label per line, skipping blanks and # comments.
func parseLabelFile(body string) []string {
	labels := []string{}
	seen := map[string]bool{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true
		labels = append(labels, line)
	}
	return labels
}
