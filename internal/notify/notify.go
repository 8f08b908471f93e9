// Package notify sends a security e-mail whenever someone signs in to the
// site. Delivery happens in the background and never blocks or fails the
// sign-in itself.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/smtp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
)

const (
	subject       = "[Character Sheet] Login notification"
	defaultIP     = "127.0.0.1"
	unknownDevice = "Unknown Device"
)

var jst = time.FixedZone("JST", 9*60*60)

// Config describes the SMTP relay. Host and To must be set for mail to be
// sent; the relay is reached over implicit TLS.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	To         string
	ExcludeIPs []string
}

// Message is a single plain-text mail.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Notifier struct {
	cfg  Config
	log  logging.Logger
	now  func() time.Time
	send func(ctx context.Context, m Message) error
	wg   sync.WaitGroup
}

func New(cfg Config, log logging.Logger) *Notifier {
	n := &Notifier{
		cfg: cfg,
		log: log.With("module", "notify"),
		now: time.Now,
	}
	n.send = n.sendSMTP
	return n
}

func (n *Notifier) Enabled() bool {
	return n.cfg.Host != "" && n.cfg.To != ""
}

// Excluded reports whether ip is on the exclusion list.
func (n *Notifier) Excluded(ip string) bool {
	return slices.Contains(n.cfg.ExcludeIPs, ip)
}

// NotifyLogin queues a login notice for the client that made r.
func (n *Notifier) NotifyLogin(ctx context.Context, r *http.Request) {
	if !n.Enabled() {
		return
	}

	ip := ClientIP(r)
	if n.Excluded(ip) {
		n.log.Info(ctx, "login notification skipped for excluded ip", "ip", ip)
		return
	}

	ua := r.UserAgent()
	if ua == "" {
		ua = unknownDevice
	}
	m := n.loginMessage(ip, ua)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := n.send(ctx, m); err != nil {
			n.log.Error(ctx, "sending login notification failed", "ip", ip, "err", err)
		}
	}()
}

// Wait blocks until queued notifications have been handed off.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) loginMessage(ip, userAgent string) Message {
	var b strings.Builder
	b.WriteString("A sign-in to the character sheet was detected.\n\n")
	fmt.Fprintf(&b, "Time: %s\n", n.now().In(jst).Format("2006/01/02 15:04:05 MST"))
	fmt.Fprintf(&b, "IP address: %s\n", ip)
	fmt.Fprintf(&b, "Device: %s\n", userAgent)

	return Message{From: n.cfg.From, To: n.cfg.To, Subject: subject, Body: b.String()}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of the remote address. The loopback address stands in when none
// of them is set.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return defaultIP
}

// Encode renders m as an RFC 5322 message.
func (m Message) Encode() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func (n *Notifier) sendSMTP(ctx context.Context, m Message) error {
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))

	d := tls.Dialer{Config: &tls.Config{ServerName: n.cfg.Host, MinVersion: tls.VersionTLS12}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if n.cfg.User != "" {
		if err := c.Auth(smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(m.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(m.To); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(m.Encode()); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return c.Quit()
}
