package statement

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"money-sorter/internal/extraction"
)

// IDGenerator generates unique IDs for file trackers
type IDGenerator interface {
	Generate() string
}

// uuidIDGenerator generates IDs using random UUIDs
type uuidIDGenerator struct{}

func (g *uuidIDGenerator) Generate() string {
	return uuid.NewString()
}

// queuedFile pairs a pending tracker with the file bytes it needs for
// processing. The bytes are held only until the tracker settles.
type queuedFile struct {
	trackerID string
	file      UploadedFile
}

// Queue is the batch queue controller. It owns the tracker and statement
// collections for the session and is their sole mutator; every other
// component reads snapshots. Submissions are serialized internally, so
// at most one processing loop runs at a time and files settle in
// submission order.
type Queue struct {
	extractor extraction.Extractor
	store     SessionStore
	notifier  Notifier
	idGen     IDGenerator

	submitMu sync.Mutex // serializes processing loops across Submit calls

	mu         sync.Mutex
	trackers   []FileTracker
	statements []StatementData
	processing bool
	generation uint64 // bumped by Reset so an in-flight result is discarded
}

// NewQueue creates a Queue and loads the persisted statement mirror.
// A failing store is logged and the session starts empty.
func NewQueue(extractor extraction.Extractor, store SessionStore, notifier Notifier) *Queue {
	return NewQueueWithDeps(extractor, store, notifier, &uuidIDGenerator{})
}

// NewQueueWithDeps creates a Queue with a custom ID generator for testing
func NewQueueWithDeps(extractor extraction.Extractor, store SessionStore, notifier Notifier, idGen IDGenerator) *Queue {
	q := &Queue{
		extractor: extractor,
		store:     store,
		notifier:  notifier,
		idGen:     idGen,
	}

	if store != nil {
		statements, err := store.LoadStatements()
		if err != nil {
			slog.Error("Failed to load session statements", "error", err)
		} else {
			q.statements = statements
		}
	}

	return q
}

// Submit filters the offered files through the dedup guard, enqueues a
// Pending tracker per unique file at the front of the queue, then
// processes the new trackers strictly one at a time in submission order.
// A single file's failure marks only its own tracker and never aborts
// the loop. Submit blocks until the batch drains; concurrent calls are
// serialized internally. It returns the settled trackers of this batch.
func (q *Queue) Submit(ctx context.Context, files []UploadedFile) []FileTracker {
	q.submitMu.Lock()
	defer q.submitMu.Unlock()

	q.mu.Lock()
	var batch []queuedFile
	var fresh []FileTracker
	for _, f := range files {
		if IsDuplicate(q.trackers, f.Name, f.Size) || IsDuplicate(fresh, f.Name, f.Size) {
			continue
		}
		tracker := FileTracker{
			ID:       q.idGen.Generate(),
			FileName: f.Name,
			FileSize: f.Size,
			Status:   StatusPending,
		}
		fresh = append(fresh, tracker)
		batch = append(batch, queuedFile{trackerID: tracker.ID, file: f})
	}

	if len(batch) == 0 {
		q.mu.Unlock()
		if len(files) > 0 && q.notifier != nil {
			q.notifier.Notify(NoticeInfo, "Files already in queue")
		}
		return nil
	}

	// Most-recent-first: new trackers go to the front, processing still
	// follows submission order within the batch
	q.trackers = append(append([]FileTracker(nil), fresh...), q.trackers...)
	q.processing = true
	gen := q.generation
	q.mu.Unlock()

	systemicNotified := false
	for _, item := range batch {
		q.setStatus(gen, item.trackerID, StatusProcessing, "")

		res, err := q.extractor.ExtractStatement(ctx, item.file.Data, item.file.ContentType)
		if err != nil {
			var exErr *extraction.Error
			if errors.As(err, &exErr) && exErr.Systemic() && !systemicNotified && q.notifier != nil {
				// Misconfiguration hits every later file too; tell the
				// user once per batch on top of the per-file status
				q.notifier.Notify(NoticeError, exErr.Message)
				systemicNotified = true
			}
			slog.Error("Extraction failed", "file", item.file.Name, "error", err)
			q.setStatus(gen, item.trackerID, StatusError, err.Error())
			continue
		}

		data := NewStatementData(item.trackerID, item.file.Name, res)
		q.appendStatement(gen, data)
		if data.IsValid {
			q.setStatus(gen, item.trackerID, StatusComplete, "")
		} else {
			q.setStatus(gen, item.trackerID, StatusError, data.ValidationError)
		}
	}

	q.mu.Lock()
	if q.generation == gen {
		q.processing = false
	}
	settled := q.batchSnapshot(fresh)
	q.mu.Unlock()
	return settled
}

// batchSnapshot returns current copies of the given trackers, in the
// order they were created. Caller must hold q.mu.
func (q *Queue) batchSnapshot(fresh []FileTracker) []FileTracker {
	settled := make([]FileTracker, 0, len(fresh))
	for _, f := range fresh {
		for _, t := range q.trackers {
			if t.ID == f.ID {
				settled = append(settled, t)
				break
			}
		}
	}
	return settled
}

// setStatus transitions one tracker. A stale generation means Reset ran
// mid-loop; the orphaned update is dropped instead of reviving cleared
// state.
func (q *Queue) setStatus(gen uint64, trackerID string, status FileStatus, errorMessage string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.generation != gen {
		return
	}
	for i := range q.trackers {
		if q.trackers[i].ID == trackerID {
			q.trackers[i].Status = status
			q.trackers[i].ErrorMessage = errorMessage
			return
		}
	}
}

// appendStatement appends one settled statement and mirrors the
// collection to the store. Store failures are logged and swallowed; the
// session continues in memory.
func (q *Queue) appendStatement(gen uint64, data StatementData) {
	q.mu.Lock()
	if q.generation != gen {
		q.mu.Unlock()
		return
	}
	q.statements = append(q.statements, data)
	snapshot := append([]StatementData(nil), q.statements...)
	q.mu.Unlock()

	q.persist(snapshot)
}

func (q *Queue) persist(statements []StatementData) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveStatements(statements); err != nil {
		slog.Error("Failed to save session statements", "error", err)
	}
}

// Reset clears the tracker and statement collections and the persisted
// mirror. A still-running extraction is not cancelled; the generation
// bump makes the loop discard its result when it settles.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.generation++
	q.trackers = nil
	q.statements = nil
	q.processing = false
	q.mu.Unlock()

	q.persist(nil)
}

// IsProcessing reports whether a submitted batch is still draining
func (q *Queue) IsProcessing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

// Trackers returns a snapshot of the file queue, most recent first
func (q *Queue) Trackers() []FileTracker {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]FileTracker(nil), q.trackers...)
}

// Statements returns a snapshot of the session statement collection
func (q *Queue) Statements() []StatementData {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]StatementData(nil), q.statements...)
}

// Transactions returns the flattened transaction list of all valid
// statements, for charts and export
func (q *Queue) Transactions() []Transaction {
	q.mu.Lock()
	defer q.mu.Unlock()
	var txs []Transaction
	for _, s := range q.statements {
		if s.IsValid {
			txs = append(txs, s.Transactions...)
		}
	}
	return txs
}

// Summary recomputes the batch summary from the current collections
func (q *Queue) Summary() BatchSummary {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Aggregate(len(q.trackers), q.statements)
}
