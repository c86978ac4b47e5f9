package util

import "strings"

const (
	// KakaoTalk folds a message behind "전체보기" once it passes roughly this many characters.
	SeeMorePadding = 500
	ZeroWidthSpace = "\u200b"
)

// PadSeeMore puts preview above a run of zero-width spaces so that only the
// preview is visible until the reader expands the message.
func PadSeeMore(preview, body string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	preview = strings.TrimSpace(preview)

	var b strings.Builder
	b.Grow(len(preview) + SeeMorePadding*len(ZeroWidthSpace) + len(body) + 1)
	b.WriteString(preview)
	b.WriteString(strings.Repeat(ZeroWidthSpace, SeeMorePadding))
	if !strings.HasPrefix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(body)
	return b.String()
}

// StripHeader drops header (and the blank line after it) from the top of text.
func StripHeader(text, header string) string {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(header) == "" {
		return text
	}
	for _, candidate := range []string{header + "\r\n\r\n", header + "\n\n", header + "\r\n", header + "\n", header} {
		if strings.HasPrefix(text, candidate) {
			return strings.TrimPrefix(text, candidate)
		}
	}
	return text
}

// Forward renders a long reply as one folded message: header stays visible,
// the remaining lines sit behind the fold. fallback is shown when header is blank.
func Forward(text, header, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	preview := strings.TrimSpace(header)
	if preview == "" {
		preview = strings.TrimSpace(fallback)
	}
	return PadSeeMore(preview, StripHeader(text, header))
}
