package extractor

// scanState tracks whether the block scanner is inside a string literal
type scanState int

const (
	stateNormal scanState = iota
	stateInString
)

// blockScanner locates the end of a brace- or paren-delimited block. It is a
// small state machine over {Normal, InString(delimiter)}: string delimiters
// are ', " and backtick; a backslash immediately before a delimiter keeps the
// current state; depth only changes in Normal and only for the opening
// character's pair. Template literals with nested quotes are handled because
// only the opening delimiter can close its own string.
type blockScanner struct {
	state     scanState
	delimiter byte
}

// scanBlock returns the byte offset one past the close of the block whose
// opening character sits at openPos, or -1 when the block never closes.
// source[openPos] must be '{' or '('.
func scanBlock(source string, openPos int) int {
	if openPos >= len(source) {
		return -1
	}

	open := source[openPos]
	var close byte
	switch open {
	case '{':
		close = '}'
	case '(':
		close = ')'
	default:
		return -1
	}

	sc := blockScanner{state: stateNormal}
	depth := 1

	for pos := openPos + 1; pos < len(source); pos++ {
		ch := source[pos]

		if ch == '\'' || ch == '"' || ch == '`' {
			escaped := pos > 0 && source[pos-1] == '\\'
			if !escaped {
				switch sc.state {
				case stateNormal:
					sc.state = stateInString
					sc.delimiter = ch
				case stateInString:
					if ch == sc.delimiter {
						sc.state = stateNormal
					}
				}
			}
		}

		if sc.state != stateNormal {
			continue
		}

		switch ch {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return pos + 1
			}
		}
	}

	return -1
}

// extractBlock returns the source text of the declaration starting at
// declPos whose block opens at openPos, from the beginning of the line
// containing declPos through the matching close character, along with the
// 1-indexed end line. startLine is the line of declPos; the end line is
// derived from the newlines between declPos and the close, so it stays
// correct when a parameter list spans lines before the opener. An
// unterminated block extends to end of source.
func extractBlock(source string, declPos, openPos, startLine int) (string, int) {
	if openPos >= len(source) || (source[openPos] != '{' && source[openPos] != '(') {
		return "", startLine
	}

	end := scanBlock(source, openPos)
	if end < 0 {
		end = len(source)
	}

	lineStart := 0
	if i := lastIndexByte(source[:declPos], '\n'); i >= 0 {
		lineStart = i + 1
	}

	code := source[lineStart:end]
	endLine := startLine + countLines(source[declPos:end])
	return code, endLine
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func countLines(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
		}
	}
	return n
}
