package email

import (
	"errors"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/daily-diet/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSender(send sendFunc) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{SMTPHost: "smtp.test", SMTPPort: "2525", SenderEmail: "diet@test.com", SMTPTimeout: time.Second}
	s := NewSender(cfg, log)
	s.send = send
	return s
}

// listenSMTP serves one connection with handle and returns the sender config pointing at it
func listenSMTP(t *testing.T, handle func(conn net.Conn)) *config.Config {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return &config.Config{SMTPHost: host, SMTPPort: port, SenderEmail: "Daily Diet <diet@test.com>", SMTPTimeout: 200 * time.Millisecond}
}

func quietSender(cfg *config.Config) *Sender {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewSender(cfg, log)
}

func TestSendWelcome(t *testing.T) {
	var (
		sent *email.Email
		addr string
		auth smtp.Auth
	)
	s := newTestSender(func(e *email.Email, a string, au smtp.Auth) error {
		sent, addr, auth = e, a, au
		return nil
	})

	require.NoError(t, s.SendWelcome("john@test.com", "John Doe"))

	require.NotNil(t, sent)
	assert.Equal(t, "smtp.test:2525", addr)
	assert.Nil(t, auth)
	assert.Equal(t, "diet@test.com", sent.From)
	assert.Equal(t, []string{"john@test.com"}, sent.To)
	assert.Contains(t, string(sent.Text), "Dear John Doe")
}

func TestSendWelcomeUsesAuthWhenConfigured(t *testing.T) {
	var auth smtp.Auth
	s := newTestSender(func(_ *email.Email, _ string, au smtp.Auth) error {
		auth = au
		return nil
	})
	s.cfg.SMTPUsername = "user"

	require.NoError(t, s.SendWelcome("john@test.com", "John"))
	assert.NotNil(t, auth)
}

func TestSendWelcomeWrapsError(t *testing.T) {
	boom := errors.New("dial tcp: refused")
	s := newTestSender(func(*email.Email, string, smtp.Auth) error { return boom })

	err := s.SendWelcome("john@test.com", "John")
	assert.ErrorIs(t, err, boom)
}

func TestSendWelcomeTimesOutOnSilentServer(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	cfg := listenSMTP(t, func(net.Conn) { <-release })

	start := time.Now()
	err := quietSender(cfg).SendWelcome("john@test.com", "John")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSendWelcomeDeliversOverSMTP(t *testing.T) {
	received := make(chan string, 1)
	cfg := listenSMTP(t, func(conn net.Conn) {
		tp := textproto.NewConn(conn)
		tp.PrintfLine("220 test ESMTP")
		var envelope []string
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			switch cmd := strings.ToUpper(strings.Fields(line + " x")[0]); cmd {
			case "EHLO", "HELO":
				tp.PrintfLine("250 test")
			case "MAIL", "RCPT":
				envelope = append(envelope, line)
				tp.PrintfLine("250 OK")
			case "DATA":
				tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				received <- strings.Join(envelope, "\n") + "\n" + string(body)
				tp.PrintfLine("250 queued")
			case "QUIT":
				tp.PrintfLine("221 bye")
				return
			default:
				tp.PrintfLine("502 unsupported")
			}
		}
	})

	require.NoError(t, quietSender(cfg).SendWelcome("john@test.com", "John Doe"))

	select {
	case msg := <-received:
		assert.Contains(t, msg, "MAIL FROM:<diet@test.com>")
		assert.Contains(t, msg, "RCPT TO:<john@test.com>")
		assert.Contains(t, msg, "Dear John Doe")
	case <-time.After(2 * time.Second):
		t.Fatal("message not received")
	}
}
