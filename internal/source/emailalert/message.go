package emailalert

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"net/mail"
	"regexp"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// message is the slice of an alert email the provider cares about.
type message struct {
	UID     imap.UID
	From    string
	Subject string
	Body    string // decoded body, HTML or plain
}

// fetchMessages pulls envelope + full body for the given UIDs using
// BODY.PEEK[] so messages are not marked \Seen by the fetch itself.
func fetchMessages(c *imapclient.Client, uids []imap.UID) ([]message, error) {
	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	cmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = cmd.Close() }()

	out := make([]message, 0, len(uids))
	for {
		msgData := cmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("collect: %w", err)
		}

		m := message{UID: buf.UID}
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			if len(buf.Envelope.From) > 0 {
				m.From = buf.Envelope.From[0].Addr()
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Body = decodeBody(b, &m)
		}
		out = append(out, m)
	}

	if err := cmd.Close(); err != nil {
		return nil, fmt.Errorf("close: %w", err)
	}
	return out, nil
}

// decodeBody strips RFC822 headers off raw message bytes, filling in the
// subject from headers when the envelope was empty.
func decodeBody(raw []byte, m *message) string {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return string(raw)
	}
	if m.Subject == "" {
		m.Subject = msg.Header.Get("Subject")
	}
	if m.From == "" {
		m.From = msg.Header.Get("From")
	}
	body, _ := io.ReadAll(io.LimitReader(msg.Body, 6<<20))
	return string(body)
}

func matchesKeyword(m message, keyword string) bool {
	if keyword == "" {
		return true
	}
	kw := strings.ToLower(keyword)
	return strings.Contains(strings.ToLower(m.Subject), kw) ||
		strings.Contains(strings.ToLower(m.Body), kw)
}

var (
	reHref = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"'#]+)["']`)
	reURL  = regexp.MustCompile(`https?://[^\s<>"']+`)
)

// extractLinks pulls URLs out of an alert body: anchor hrefs when the body
// is HTML-ish, naked URLs otherwise.
func extractLinks(body string) []string {
	var out []string

	if strings.Contains(strings.ToLower(body), "<a ") {
		for _, match := range reHref.FindAllStringSubmatch(body, -1) {
			href := strings.TrimSpace(html.UnescapeString(match[1]))
			if href != "" {
				out = append(out, href)
			}
		}
		return out
	}

	for _, u := range reURL.FindAllString(body, -1) {
		out = append(out, strings.TrimRight(u, ".,);:]\"'"))
	}
	return out
}
