package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("recorder closed")

// RoundResult is what gets archived once a judge has picked a winner.
type RoundResult struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	Pick        int       `json:"pick"`
	JudgeID     string    `json:"judgeID"`
	WinnerID    string    `json:"winnerID"`
	Cards       []string  `json:"cards"`
	Submissions int       `json:"submissions"`
	DecidedAt   time.Time `json:"decidedAt"`
}

type Sink interface {
	Record(ctx context.Context, res RoundResult) error
	Close() error
}

const recordTimeout = 5 * time.Second

// Recorder fans round results out to its sinks from a single worker so the
// game loop never waits on a database or broker.
type Recorder struct {
	queue chan RoundResult
	sinks []Sink
	log   *zap.Logger
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewRecorder(log *zap.Logger, size int, sinks ...Sink) *Recorder {
	if size <= 0 {
		size = 64
	}
	r := &Recorder{
		queue: make(chan RoundResult, size),
		sinks: sinks,
		log:   log,
		done:  make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Recorder) loop() {
	defer close(r.done)
	for res := range r.queue {
		for _, s := range r.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			if err := s.Record(ctx, res); err != nil {
				r.log.Warn("archive round failed", zap.String("round", res.ID), zap.Error(err))
			}
			cancel()
		}
	}
}

// Enqueue hands res to the worker. It never blocks: when the queue is full
// or the recorder is closed the result is dropped and false is returned.
func (r *Recorder) Enqueue(res RoundResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- res:
		return true
	default:
		r.log.Warn("archive queue full, dropping round", zap.String("round", res.ID))
		return false
	}
}

// Close drains what is already queued and then closes every sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	<-r.done
	var err error
	for _, s := range r.sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}
