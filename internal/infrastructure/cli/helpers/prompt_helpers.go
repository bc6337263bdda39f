package helpers

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptForConfirmation asks the user to confirm a destructive action.
// Anything but y or yes, including a read error, means no.
func PromptForConfirmation(out io.Writer, reader *bufio.Reader, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
