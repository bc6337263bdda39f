package domain

// ContextSnapshot is the selection context captured from the foreground application.
// SelectedText is nil when nothing usable was selected or permission is missing.
type ContextSnapshot struct {
	SelectedText         *string `json:"selectedText"`
	HasEditableSelection bool    `json:"hasEditableSelection"`
	AccessibilityTrusted bool    `json:"accessibilityTrusted"`
}

// UntrustedSnapshot is returned when accessibility permission is absent.
func UntrustedSnapshot() ContextSnapshot {
	return ContextSnapshot{}
}

// EmptySnapshot is returned when permission is present but capture failed.
func EmptySnapshot() ContextSnapshot {
	return ContextSnapshot{AccessibilityTrusted: true}
}

// HasSelection reports whether the snapshot carries usable selected text.
func (s ContextSnapshot) HasSelection() bool {
	return s.SelectedText != nil
}

// Text returns the selected text or "" when there is none.
func (s ContextSnapshot) Text() string {
	if s.SelectedText == nil {
		return ""
	}
	return *s.SelectedText
}
