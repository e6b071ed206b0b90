package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/completion/ranking"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
	"github.com/atinylittleshell/termsuggest/internal/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const maxDetailWidth = 60

var (
	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	keyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11"))
)

// renderItems writes one candidate per line. Plain output is tab separated
// for scripts: index, label, kind, detail.
func renderItems(w io.Writer, items []ranking.Item, styled bool) error {
	if !styled {
		for i, item := range items {
			c := item.Candidate
			if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, c.Label.Text, c.Kind, c.Detail); err != nil {
				return err
			}
		}
		return nil
	}

	labelWidth := 0
	for _, item := range items {
		labelWidth = max(labelWidth, lipgloss.Width(item.Candidate.Label.Text))
	}

	var b strings.Builder
	for i, item := range items {
		c := item.Candidate
		b.WriteString(indexStyle.Render(fmt.Sprintf("%3d ", i)))
		b.WriteString(labelStyle.Width(labelWidth + 2).Render(c.Label.Text))
		b.WriteString(kindStyle.Width(14).Render(c.Kind.String()))
		detail := c.Detail
		if c.Label.Description != "" {
			detail = c.Label.Description
		}
		if detail != "" {
			b.WriteString(detailStyle.Render(truncate.StringWithTail(detail, maxDetailWidth, "…")))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderAccepted writes the keys to send and the line they produce.
func renderAccepted(w io.Writer, edits prompt.EditSequence, line string, submitted, styled bool) error {
	keys := strconv.Quote(edits.String())
	if !styled {
		_, err := fmt.Fprintf(w, "%s\n%s\n%t\n", keys, line, submitted)
		return err
	}

	var b strings.Builder
	b.WriteString(keyStyle.Render("keys  ") + keys + "\n")
	b.WriteString(keyStyle.Render("line  ") + line + "\n")
	if submitted {
		b.WriteString(keyStyle.Render("runs  ") + "yes\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// renderRecorded confirms a recorded command. Plain output stays empty so
// shell hooks can call record silently.
func renderRecorded(w io.Writer, command string, styled bool) error {
	if !styled {
		return nil
	}
	_, err := fmt.Fprintln(w, styles.SUCCESS("recorded ")+command)
	return err
}
