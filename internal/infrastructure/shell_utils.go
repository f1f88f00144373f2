package infrastructure

import "strings"

// shellSpecialChars are the characters that make a word need quoting in a POSIX shell
const shellSpecialChars = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellQuote quotes s so it can be pasted into a shell as a single word.
// Only used to render yt-dlp invocations in the download log.
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellSpecialChars) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders binary and args as a copy-pasteable command line
func ShellEscapeCommand(binary string, args ...string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, ShellQuote(binary))
	for _, arg := range args {
		words = append(words, ShellQuote(arg))
	}
	return strings.Join(words, " ")
}
