// Package emailalert implements a SearchProvider over an IMAP mailbox of
// job-alert emails. A "search" drains unseen alert messages whose subject
// or body mentions the query keyword and returns the posting links found
// in them.
package emailalert

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/source"
)

const fetchMax = 50

type Config struct {
	SourceID string
	Addr     string // host:port, TLS
	Username string
	Password string
	Mailbox  string
}

type Provider struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Provider {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &Provider{
		cfg: cfg,
		log: log.Named("emailalert").With(zap.String("source", cfg.SourceID)),
	}
}

func (p *Provider) ID() string { return p.cfg.SourceID }

// Search connects, pulls unseen messages inside the freshness window,
// extracts posting links, and marks only the messages that matched the
// keyword as seen. Auth failures are fatal; everything at the transport
// level is transient.
func (p *Provider) Search(ctx context.Context, q domain.JobQuery) ([]string, error) {
	c, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Logout().Wait()

	if _, err := c.Select(p.cfg.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return nil, source.Transient(fmt.Errorf("imap select %s: %w", p.cfg.Mailbox, err))
	}

	since := sinceCutoff(q.Freshness)
	searchData, err := c.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   since,
	}, nil).Wait()
	if err != nil {
		return nil, source.Transient(fmt.Errorf("imap uid search: %w", err))
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > fetchMax {
		uids = uids[len(uids)-fetchMax:] // newest tail
	}

	msgs, err := fetchMessages(c, uids)
	if err != nil {
		return nil, source.Transient(fmt.Errorf("imap fetch: %w", err))
	}

	var out []string
	var matched []imap.UID
	seen := map[string]bool{}
	for _, m := range msgs {
		if !matchesKeyword(m, q.Keyword) {
			continue
		}
		matched = append(matched, m.UID)
		for _, link := range extractLinks(m.Body) {
			if source.IsJunkURL(link) {
				continue
			}
			canon := source.CanonicalizeURL(link)
			if canon == "" || seen[canon] {
				continue
			}
			seen[canon] = true
			out = append(out, canon)
		}
	}

	if len(matched) > 0 {
		p.markSeen(c, matched)
	}

	p.log.Debug("alert mailbox drained",
		zap.Int("messages", len(msgs)),
		zap.Int("matched", len(matched)),
		zap.Int("urls", len(out)))
	return out, nil
}

func (p *Provider) dial(ctx context.Context) (*imapclient.Client, error) {
	if p.cfg.Addr == "" || p.cfg.Username == "" || p.cfg.Password == "" {
		return nil, source.Fatal(errors.New("imap addr/username/password are required"))
	}

	host := p.cfg.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	c, err := imapclient.DialTLS(p.cfg.Addr, &imapclient.Options{
		TLSConfig: &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host},
	})
	if err != nil {
		return nil, source.Transient(fmt.Errorf("imap dial tls: %w", err))
	}

	// Best-effort close on cancel; the IMAP client has no context plumbing.
	go func() {
		<-ctx.Done()
		_ = c.Close()
	}()

	if err := c.Login(p.cfg.Username, p.cfg.Password).Wait(); err != nil {
		_ = c.Close()
		return nil, source.Fatal(fmt.Errorf("imap login: %w", err))
	}
	return c, nil
}

func (p *Provider) markSeen(c *imapclient.Client, uids []imap.UID) {
	set := imap.UIDSetNum(uids...)
	if err := c.Store(set, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil).Close(); err != nil {
		p.log.Warn("mark seen failed", zap.Error(err))
	}
}

func sinceCutoff(f domain.Freshness) time.Time {
	now := time.Now()
	switch f {
	case domain.FreshDay:
		return now.AddDate(0, 0, -1)
	case domain.FreshWeek:
		return now.AddDate(0, 0, -7)
	case domain.FreshMonth:
		return now.AddDate(0, -1, 0)
	case domain.FreshYear:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}
