package gaexport

import "strings"

// block is one contiguous run of non-blank lines.
type block struct {
	// title holds the leading comment lines, without the '#' marker.
	title []string
	// header is the first line that is neither a comment nor a date range
	// restatement. Empty when the block has no such line.
	header string
	// body holds the significant lines after the header.
	body []string
}

// head is the text classifiers are allowed to look at.
func (b block) head() string {
	return strings.Join(b.title, "\n") + "\n" + b.header
}

func splitBlocks(text string, labels Labels) []block {
	var (
		blocks  []block
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, newBlock(current, labels))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

func newBlock(lines []string, labels Labels) block {
	var b block
	headerSeen := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			if !headerSeen {
				b.title = append(b.title, strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			}
		case labels.isDateRangeLine(trimmed):
			// restated period, not data
		case !headerSeen:
			b.header = trimmed
			headerSeen = true
		default:
			b.body = append(b.body, trimmed)
		}
	}
	return b
}
