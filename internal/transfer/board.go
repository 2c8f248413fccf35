package transfer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/damacus/iron-files/internal/models"
)

type boardOp int

const (
	opStartBatch boardOp = iota
	opUpdate
	opRemove
	opNavigate
	opSnapshot
)

type boardMsg struct {
	op     boardOp
	prefix string
	tasks  []models.UploadTask
	task   models.UploadTask
	id     string
	reply  chan []models.UploadTask
}

// Board is the visible task list of one session. Messages are applied one
// at a time: inline while the board is idle, by the board goroutine while
// removal timers are pending. The goroutine exits once no timer is left.
type Board struct {
	grace     time.Duration
	mu        sync.Mutex // held by whoever hands a message to the board
	running   atomic.Bool
	empty     atomic.Bool
	lastUsed  atomic.Int64
	msgs      chan boardMsg
	done      chan struct{}
	closeOnce sync.Once
	state     boardState
}

type boardState struct {
	prefix string
	tasks  []models.UploadTask
	timers map[string]*time.Timer
}

// NewBoard creates an idle board. Completed tasks disappear after grace.
func NewBoard(grace time.Duration) *Board {
	b := &Board{
		grace: grace,
		msgs:  make(chan boardMsg),
		done:  make(chan struct{}),
		state: boardState{timers: make(map[string]*time.Timer)},
	}
	b.empty.Store(true)
	b.touch()
	return b
}

func (b *Board) run() {
	for {
		select {
		case msg := <-b.msgs:
			b.apply(msg)
			// A failed TryLock means a sender is about to hand over a message
			if len(b.state.timers) == 0 && b.mu.TryLock() {
				b.running.Store(false)
				b.mu.Unlock()
				return
			}
		case <-b.done:
			for _, t := range b.state.timers {
				t.Stop()
			}
			return
		}
	}
}

func (b *Board) apply(msg boardMsg) {
	state := &b.state
	switch msg.op {
	case opStartBatch:
		// A new batch supersedes failures of earlier ones
		state.dropErrors()
		state.prefix = msg.prefix
		state.tasks = append(state.tasks, msg.tasks...)
	case opUpdate:
		for i := range state.tasks {
			if state.tasks[i].ID != msg.task.ID {
				continue
			}
			state.tasks[i] = msg.task
			if msg.task.Status == models.StatusCompleted {
				b.scheduleRemoval(msg.task.ID)
			}
			break
		}
	case opRemove:
		delete(state.timers, msg.id)
		state.remove(msg.id)
	case opNavigate:
		if msg.prefix != state.prefix {
			state.dropErrors()
			state.prefix = msg.prefix
		}
	case opSnapshot:
		out := make([]models.UploadTask, len(state.tasks))
		copy(out, state.tasks)
		msg.reply <- out
	}
	b.empty.Store(len(state.tasks) == 0)
}

func (b *Board) scheduleRemoval(id string) {
	state := &b.state
	if b.grace <= 0 {
		state.remove(id)
		return
	}
	if _, ok := state.timers[id]; ok {
		return
	}
	state.timers[id] = time.AfterFunc(b.grace, func() {
		b.post(boardMsg{op: opRemove, id: id})
	})
}

func (s *boardState) remove(id string) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *boardState) dropErrors() {
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Status != models.StatusError {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
}

func (b *Board) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// deliver hands msg to the board and reports whether it was accepted
func (b *Board) deliver(msg boardMsg) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed() {
		return false
	}
	b.touch()
	if !b.running.Load() {
		b.apply(msg)
		if len(b.state.timers) > 0 {
			b.running.Store(true)
			go b.run()
		}
		return true
	}
	select {
	case b.msgs <- msg:
		return true
	case <-b.done:
		return false
	}
}

func (b *Board) post(msg boardMsg) {
	b.deliver(msg)
}

func (b *Board) touch() {
	b.lastUsed.Store(time.Now().UnixNano())
}

// idleSince reports when a message last reached the board
func (b *Board) idleSince() time.Time {
	return time.Unix(0, b.lastUsed.Load())
}

// quiet reports whether the board holds no tasks and has no goroutine
func (b *Board) quiet() bool {
	return b.empty.Load() && !b.running.Load()
}

// StartBatch adds the queued tasks of a new batch targeting prefix
func (b *Board) StartBatch(prefix string, tasks []models.UploadTask) {
	out := make([]models.UploadTask, len(tasks))
	copy(out, tasks)
	b.post(boardMsg{op: opStartBatch, prefix: prefix, tasks: out})
}

// Update replaces the task with the same ID
func (b *Board) Update(task models.UploadTask) {
	b.post(boardMsg{op: opUpdate, task: task})
}

// Navigate records the session's current prefix; leaving a prefix clears failed tasks
func (b *Board) Navigate(prefix string) {
	b.post(boardMsg{op: opNavigate, prefix: prefix})
}

// Tasks returns the visible tasks in creation order
func (b *Board) Tasks() []models.UploadTask {
	reply := make(chan []models.UploadTask, 1)
	if !b.deliver(boardMsg{op: opSnapshot, reply: reply}) {
		return []models.UploadTask{}
	}
	select {
	case tasks := <-reply:
		return tasks
	case <-b.done:
		return []models.UploadTask{}
	}
}

// Close stops the board goroutine and its timers
func (b *Board) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

const defaultEmptyIdle = time.Minute

// Boards keeps one board per session id. Boards nobody used for ttl are
// evicted, empty ones already after a minute.
type Boards struct {
	mu        sync.Mutex
	grace     time.Duration
	ttl       time.Duration
	emptyIdle time.Duration
	now       func() time.Time
	boards    map[string]*Board
}

// NewBoards creates an empty registry
func NewBoards(grace, ttl time.Duration) *Boards {
	return &Boards{
		grace:     grace,
		ttl:       ttl,
		emptyIdle: defaultEmptyIdle,
		now:       time.Now,
		boards:    make(map[string]*Board),
	}
}

// Get returns the board of session, creating it on first use. Idle boards
// of other sessions are evicted on the way.
func (r *Boards) Get(session string) *Board {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictIdle(session)
	b, ok := r.boards[session]
	if !ok {
		b = NewBoard(r.grace)
		r.boards[session] = b
	}
	b.touch()
	return b
}

func (r *Boards) evictIdle(keep string) {
	now := r.now()
	for id, b := range r.boards {
		if id == keep {
			continue
		}
		idle := now.Sub(b.idleSince())
		if (b.quiet() && idle >= r.emptyIdle) || (r.ttl > 0 && idle >= r.ttl) {
			b.Close()
			delete(r.boards, id)
		}
	}
}

// Lookup returns the board of session without creating one
func (r *Boards) Lookup(session string) (*Board, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[session]
	return b, ok
}

// Drop closes and forgets the board of session
func (r *Boards) Drop(session string) {
	r.mu.Lock()
	b, ok := r.boards[session]
	delete(r.boards, session)
	r.mu.Unlock()
	if ok {
		b.Close()
	}
}

// CloseAll stops every board
func (r *Boards) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.boards {
		b.Close()
		delete(r.boards, id)
	}
}
