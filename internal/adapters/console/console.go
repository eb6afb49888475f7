// Package console is an interactive terminal transport for local use:
// replies render as markdown, inline keyboards print as numbered options
// that are picked by typing the number.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/Wyvern137/hackathon/internal/logging"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// UserID is the fixed identity of the console user.
const UserID = "console"

// Client implements ports.Transport against stdin/stdout.
type Client struct {
	in  io.Reader
	out io.Writer

	renderer *glamour.TermRenderer
	logger   *slog.Logger

	mu      sync.Mutex
	options []ports.Button
	nextID  int
}

// Option configures the client.
type Option func(*Client)

// WithStreams overrides stdin/stdout, used by tests.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(c *Client) {
		c.in = in
		c.out = out
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a console client. Rendering degrades to plain text when the
// terminal profile offers no color support or glamour fails to build.
func New(opts ...Option) *Client {
	c := &Client{
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	style := glamour.WithAutoStyle()
	if termenv.EnvColorProfile() == termenv.Ascii {
		style = glamour.WithStandardStyle("notty")
	}
	if r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(100)); err == nil {
		c.renderer = r
	}
	return c
}

// Send renders the message and remembers its buttons so the next numeric
// input can be resolved to a callback.
func (c *Client) Send(_ context.Context, _ string, msg ports.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body := msg.Text
	if c.renderer != nil {
		if rendered, err := c.renderer.Render(msg.Text); err == nil {
			body = rendered
		}
	}
	fmt.Fprint(c.out, body)
	if !strings.HasSuffix(body, "\n") {
		fmt.Fprintln(c.out)
	}

	c.options = c.options[:0]
	n := 1
	for _, row := range msg.Buttons {
		for _, b := range row {
			fmt.Fprintf(c.out, "  %d) %s\n", n, b.Label)
			c.options = append(c.options, b)
			n++
		}
	}

	c.nextID++
	return strconv.Itoa(c.nextID), nil
}

// Edit re-sends; the console has no in-place message editing.
func (c *Client) Edit(ctx context.Context, chatID, _ string, msg ports.Message) error {
	_, err := c.Send(ctx, chatID, msg)
	return err
}

// Download is not supported on the console.
func (c *Client) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("console transport cannot download files")
}

// Run reads lines from the input and feeds them to the sink until EOF or
// context cancellation. A line matching the number of a displayed button
// becomes a callback event; anything else is text.
func (c *Client) Run(ctx context.Context, sink func(context.Context, domain.Event) error) error {
	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}

		event := c.resolve(line)
		if err := sink(ctx, event); err != nil {
			c.logger.Error("dispatch failed", "err", err)
			fmt.Fprintln(c.out, "⚠️  внутренняя ошибка, см. журнал")
		}
	}
	return scanner.Err()
}

func (c *Client) resolve(line string) domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(c.options) {
		picked := c.options[n-1]
		// Menu shortcuts carry no callback payload; they stand in for
		// typing the label.
		if picked.Data == "" {
			return domain.TextEvent(UserID, UserID, picked.Label)
		}
		return domain.CallbackEvent(UserID, UserID, picked.Data)
	}
	return domain.TextEvent(UserID, UserID, line)
}
