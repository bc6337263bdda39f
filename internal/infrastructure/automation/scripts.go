package automation

import (
	"strings"

	"github.com/doeshing/shai-copilot/internal/domain"
)

const appleScriptPermission = `tell application "System Events" to return UI elements enabled`

const appleScriptCapture = `set sep to "{{DELIMITER}}"
set selectedText to ""
set editableFlag to "false"
tell application "System Events"
	set frontApp to first application process whose frontmost is true
	try
		set focusedElement to value of attribute "AXFocusedUIElement" of frontApp
		try
			set selectedText to value of attribute "AXSelectedText" of focusedElement
		end try
		try
			set editableFlag to (settable of attribute "AXValue" of focusedElement) as text
		end try
	end try
end tell
if selectedText is missing value then set selectedText to ""
return selectedText & sep & editableFlag`

const appleScriptPaste = `tell application "System Events"
{{MOVE}}	keystroke "v" using command down
end tell`

const appleScriptMoveToEnd = "\tkey code 125 using command down\n\tdelay 0.05\n"

const shellPermission = `command -v xdotool >/dev/null 2>&1 && echo true || echo false`

const shellCapture = `selected="$(xclip -o -selection primary 2>/dev/null || wl-paste --primary --no-newline 2>/dev/null)"
editable=false
if command -v xdotool >/dev/null 2>&1 && [ -n "$selected" ]; then editable=true; fi
printf '%s%s%s' "$selected" '{{DELIMITER}}' "$editable"`

const shellPaste = `{{MOVE}}xdotool key --clearmodifiers ctrl+v`

const shellMoveToEnd = "xdotool key --clearmodifiers ctrl+End\nsleep 0.05\n"

// permissionScript returns the accessibility trust query for dialect.
func permissionScript(dialect string) string {
	if dialect == DialectAppleScript {
		return appleScriptPermission
	}
	return shellPermission
}

// captureScript returns the script that prints selectedText + delimiter + editable flag.
func captureScript(dialect string) string {
	script := shellCapture
	if dialect == DialectAppleScript {
		script = appleScriptCapture
	}
	return strings.ReplaceAll(script, "{{DELIMITER}}", domain.CaptureDelimiter)
}

// pasteScript returns the keystroke script for mode. Insert moves the caret
// to the end of the field first; replace pastes over the live selection.
func pasteScript(dialect string, mode domain.CopilotAction) string {
	script, move := shellPaste, shellMoveToEnd
	if dialect == DialectAppleScript {
		script, move = appleScriptPaste, appleScriptMoveToEnd
	}
	if mode != domain.ActionInsert {
		move = ""
	}
	return strings.ReplaceAll(script, "{{MOVE}}", move)
}
