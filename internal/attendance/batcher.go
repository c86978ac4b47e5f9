package attendance

import "strings"

// ForwardThreshold is the item count above which a reply is sent as a forwarded
// (collapsed) message.
const ForwardThreshold = 5

// Reply is what the transport sends back. Header, when set, is already the first
// line of Text; the transport may lift it out as the forward envelope's caption.
type Reply struct {
	Header  string
	Text    string
	Forward bool
}

func (r Reply) Empty() bool { return strings.TrimSpace(r.Text) == "" }

// Batch joins items with newlines. An item may span several lines and still counts once.
func Batch(header string, items []string) Reply {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return Reply{}
	}
	body := strings.Join(kept, "\n")
	if header != "" {
		body = header + "\n" + body
	}
	return Reply{Header: header, Text: body, Forward: len(kept) > ForwardThreshold}
}
