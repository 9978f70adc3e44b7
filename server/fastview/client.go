package fastview

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 1 * time.Second
	// Key presses are a few bytes; anything larger is a misbehaving page.
	maxMessageSize = 512

	// Pending element updates are flushed to the page at this rate.
	pubResolution  = time.Millisecond * 100
	pingResolution = time.Millisecond * 200
	// Number of lost pings tolerated before the peer is considered gone.
	pongWait = pingResolution * 4
)

var upgrader = websocket.Upgrader{}

var ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")

// client keeps one page in sync with the element updates of the views and
// hands the text messages the page sends back, key presses, to onMessage.
type client struct {
	updates   <-chan []EleUpdate
	onMessage func([]byte)
	conn      *conn
	rootCtx   context.Context
}

// NewClient upgrades the request to a websocket. onMessage may be nil.
func NewClient(
	updates <-chan []EleUpdate,
	onMessage func([]byte),
	w http.ResponseWriter,
	r *http.Request,
) (*client, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, err
	}
	ws.SetReadLimit(maxMessageSize)

	return &client{
		updates:   updates,
		onMessage: onMessage,
		conn:      newConn(ws),
		rootCtx:   r.Context(),
	}, nil
}

// Sync reads, pings and publishes until the page goes away. It returns nil
// on disconnect, else the first unexpected error.
func (cli *client) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.pingPong(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})
	group.Go(func() error {
		// Unblocks the pending read once any routine quits.
		<-groupCtx.Done()
		return cli.conn.interruptRead()
	})

	err := group.Wait()
	if isClosure(err) {
		return nil
	}
	return err
}

// pingPong checks liveness. The pong handler only runs while readMessages is reading.
func (cli *client) pingPong(ctx context.Context) error {
	pong := make(chan struct{}, 1)
	cli.conn.onPong(func() {
		select {
		case pong <- struct{}{}:
		default:
		}
	})

	pinger := channerics.NewTicker(ctx.Done(), pingResolution)
	lastPong := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pinger:
			if time.Since(lastPong) > pongWait {
				return ErrPongDeadlineExceeded
			}
			if err := cli.conn.ping(); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
		case <-pong:
			lastPong = time.Now()
		}
	}
}

// readMessages forwards text messages from the page. Read errors are
// permanent, so any error tears down the client.
func (cli *client) readMessages(ctx context.Context) error {
	for {
		msgType, msg, err := cli.conn.read()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if msgType == websocket.TextMessage && len(msg) > 0 && cli.onMessage != nil {
			cli.onMessage(msg)
		}
	}
}

// publish coalesces incoming updates per element and flushes them every
// pubResolution, so a slow page only ever sees the latest state of each element.
func (cli *client) publish(ctx context.Context) error {
	queued := pending{}
	flush := channerics.NewTicker(ctx.Done(), pubResolution)

	for {
		select {
		case <-ctx.Done():
			return nil
		case updates, ok := <-cli.updates:
			if !ok {
				return nil
			}
			queued.merge(updates)
		case <-flush:
			if len(queued) == 0 {
				break
			}
			if err := cli.conn.writeJSON(queued.drain()); err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}
		}
	}
}

func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway)
}

// Serve upgrades the request and syncs until the page disconnects, then
// closes the socket.
func Serve(
	updates <-chan []EleUpdate,
	onMessage func([]byte),
	w http.ResponseWriter,
	r *http.Request,
) error {
	cli, err := NewClient(updates, onMessage, w, r)
	if err != nil {
		return err
	}
	err = cli.Sync()
	cli.conn.close()
	return err
}
