// Package search drives the search-as-you-type dropdown: keystrokes are
// debounced, one query is issued per quiet period, and only the response to
// the most recently issued query is ever shown.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/atomic"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
)

const DefaultDebounce = 300 * time.Millisecond

type State string

const (
	StateIdle           State = "idle"
	StateDebouncing     State = "debouncing"
	StateLoading        State = "loading"
	StateShowingResults State = "showing_results"
	StateShowingEmpty   State = "showing_empty"
)

const (
	EventState    = "state"
	EventNavigate = "navigate"
	EventError    = "error"
)

// Event is sent to the client whenever the controller changes state or wants
// the client to navigate.
type Event struct {
	Type    string       `json:"type"`
	State   State        `json:"state,omitempty"`
	Query   string       `json:"query,omitempty"`
	Results []model.File `json:"results,omitempty"`
	Path    string       `json:"path,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// SearchFunc runs one search for the signed-in user.
type SearchFunc func(ctx context.Context, query string) ([]model.File, error)

type Controller struct {
	ctx      context.Context
	search   SearchFunc
	emit     func(Event)
	debounce time.Duration

	mu       sync.Mutex
	state    State
	query    string
	location string
	issued   string
	results  []model.File
	timer    *time.Timer
	closed   bool

	// keystrokes counts inputs so that a timer that already fired for an
	// older keystroke does nothing.
	keystrokes atomic.Uint64
	// generation identifies the latest issued search.
	generation atomic.Uint64
}

// NewController creates a controller in the idle state. emit is called with
// the controller's lock held and must not call back into it.
func NewController(ctx context.Context, search SearchFunc, emit func(Event), debounce time.Duration) *Controller {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Controller{
		ctx:      ctx,
		search:   search,
		emit:     emit,
		debounce: debounce,
		state:    StateIdle,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.state = s
	ev := Event{Type: EventState, State: s, Query: c.query}
	if s == StateShowingResults {
		ev.Results = c.results
	}
	c.emit(ev)
}

// Input records a keystroke. location is the page the client is on and is
// used when an emptied query has to be removed from it.
func (c *Controller) Input(query, location string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.query = query
	c.location = location

	seq := c.keystrokes.Inc()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() { c.fire(seq) })

	c.setState(StateDebouncing)
}

func (c *Controller) fire(seq uint64) {
	c.mu.Lock()
	if c.closed || seq != c.keystrokes.Load() {
		c.mu.Unlock()
		return
	}

	q := strings.TrimSpace(c.query)
	if q == "" {
		c.generation.Inc()
		c.issued = ""
		c.results = nil
		c.setState(StateIdle)
		c.emit(Event{Type: EventNavigate, Path: ClearQuery(c.location)})
		c.mu.Unlock()
		return
	}

	gen := c.generation.Inc()
	c.issued = q
	c.setState(StateLoading)
	c.mu.Unlock()

	results, err := c.search(c.ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation.Load() || q != c.issued {
		slog.Debug("discarding stale search response", "query", q)
		return
	}

	if err != nil {
		slog.Warn("search failed", "query", q, "error", err)
		c.results = nil
		c.emit(Event{Type: EventError, Query: q, Error: err.Error()})
		c.setState(StateShowingEmpty)
		return
	}

	c.results = results
	if len(results) == 0 {
		c.setState(StateShowingEmpty)
		return
	}
	c.setState(StateShowingResults)
}

// Select closes the dropdown and navigates to the listing of the chosen
// file's type, carrying the current query.
func (c *Controller) Select(fileID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var selected *model.File
	for i := range c.results {
		if c.results[i].ID == fileID {
			selected = &c.results[i]
			break
		}
	}
	if selected == nil {
		return fmt.Errorf("%w: file %s is not among the results", apperr.ErrNotFound, fileID)
	}

	path := ListingPath(selected.Type, c.query)

	c.keystrokes.Inc()
	c.generation.Inc()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.results = nil
	c.setState(StateIdle)
	c.emit(Event{Type: EventNavigate, Path: path})
	return nil
}

// Close stops the controller. Pending timers and in-flight searches are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
}

// ListingPath is the listing page for files of type t filtered by query.
// Video and audio share the media page.
func ListingPath(t model.FileType, query string) string {
	var base string
	switch t {
	case model.FileTypeVideo, model.FileTypeAudio:
		base = "/media"
	default:
		base = "/" + string(t) + "s"
	}
	return base + "?" + url.Values{"query": {query}}.Encode()
}

// ClearQuery removes the query parameter from location and keeps everything else.
func ClearQuery(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}

	params := u.Query()
	params.Del("query")
	u.RawQuery = params.Encode()
	return u.String()
}
