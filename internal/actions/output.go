// Package actions emits GitHub Actions workflow commands.
// The pipeline stages report results (checksums, scores, approval flags)
// back to the calling workflow via the legacy ::set-output protocol.
package actions

import (
	"fmt"
	"io"
	"strings"
)

var valueEscaper = strings.NewReplacer(
	"%", "%25",
	"\r", "%0D",
	"\n", "%0A",
)

var nameEscaper = strings.NewReplacer(
	"%", "%25",
	"\r", "%0D",
	"\n", "%0A",
	":", "%3A",
	",", "%2C",
)

// SetOutput writes a legacy ::set-output command to w.
func SetOutput(w io.Writer, name, value string) {
	fmt.Fprintf(w, "::set-output name=%s::%s\n", nameEscaper.Replace(name), valueEscaper.Replace(value))
}

// Notice writes a ::notice workflow command to w.
func Notice(w io.Writer, message string) {
	fmt.Fprintf(w, "::notice::%s\n", valueEscaper.Replace(message))
}

// Warning writes a ::warning workflow command to w.
func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "::warning::%s\n", valueEscaper.Replace(message))
}
