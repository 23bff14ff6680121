package gaexport

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// normalizeText prepares raw export bytes for block splitting. It rejects
// binary input, replaces invalid UTF-8, unifies line endings and repairs
// Mac-Roman mojibake line by line.
func normalizeText(raw string) (string, error) {
	if strings.IndexByte(raw, 0) >= 0 {
		return "", ErrBinaryInput
	}

	s := strings.ToValidUTF8(raw, "\uFFFD")
	s = strings.TrimPrefix(s, "\uFEFF")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = repairMojibake(line)
	}
	return strings.Join(lines, "\n"), nil
}

// repairMojibake undoes UTF-8 text that was decoded as Mac-Roman and saved
// again as UTF-8 ("N¬∞ giorno" for "N° giorno"). The line is re-encoded to
// Mac-Roman bytes; when those bytes form valid UTF-8 they are the original text.
// Correctly encoded lines fail that check and are returned unchanged.
func repairMojibake(line string) string {
	if isASCII(line) {
		return line
	}
	encoded, err := charmap.Macintosh.NewEncoder().String(line)
	if err != nil || encoded == line || !utf8.ValidString(encoded) {
		return line
	}
	return encoded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
