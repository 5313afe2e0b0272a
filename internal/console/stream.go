// internal/console/stream.go
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EventHandler receives the lifecycle of one push-channel subscription
type EventHandler interface {
	OnOpen()
	OnMessage(data []byte)
	OnError(err error)
}

// PushChannel is a one-way server-to-client event subscription.
// Listen connects, calls OnOpen once connected, OnMessage for every event and
// OnError once when the connection fails, then returns. When ctx is cancelled
// Listen returns without calling OnError.
type PushChannel interface {
	Listen(ctx context.Context, h EventHandler)
}

var errStreamClosed = errors.New("stream closed by server")

// SSEChannel is a PushChannel over server-sent events
type SSEChannel struct {
	url    string
	client *http.Client
}

// NewSSEChannel subscribes to the given event-stream URL. The client should
// have no overall timeout since the response never ends on its own.
func NewSSEChannel(url string, client *http.Client) *SSEChannel {
	if client == nil {
		client = &http.Client{}
	}
	return &SSEChannel{url: url, client: client}
}

// Listen implements PushChannel
func (s *SSEChannel) Listen(ctx context.Context, h EventHandler) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		h.OnError(err)
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		h.OnError(fmt.Errorf("%w: %v", ErrTransport, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.OnError(fmt.Errorf("%w: HTTP %d", ErrStatus, resp.StatusCode))
		return
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		h.OnError(fmt.Errorf("%w: content type %q", ErrShape, ct))
		return
	}

	h.OnOpen()
	err = readEvents(resp.Body, h.OnMessage)
	if ctx.Err() != nil {
		return
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = errStreamClosed
	}
	h.OnError(err)
}

// readEvents parses an event stream, dispatching the data of every "message"
// event. It returns when the reader fails; a clean end of stream is io.EOF.
func readEvents(r io.Reader, dispatch func([]byte)) error {
	br := bufio.NewReader(r)

	var (
		data    []string
		hasData bool
		event   string
	)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return err
		}
		line = strings.TrimRight(line, "\r\n")

		if line == "" {
			if hasData && (event == "" || event == "message") {
				dispatch([]byte(strings.Join(data, "\n")))
			}
			data, hasData, event = nil, false, ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			event = value
		}
	}
}
