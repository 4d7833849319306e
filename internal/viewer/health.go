package viewer

import "github.com/five82/contrail/internal/ingest"

// OfflineAfter is the number of consecutive poll failures after which a
// source is shown as offline.
const OfflineAfter = 2

// Health is the latest known condition of one source.
type Health struct {
	Name                string
	Received            uint64
	ConsecutiveFailures int
	LastError           error
	Failed              bool // the start hook failed or the adapter panicked
	Done                bool // the source ran out of records
}

// IsOffline returns true when the source has failed multiple polls in a row.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= OfflineAfter
}

// Status is a short label for the header.
func (h Health) Status() string {
	switch {
	case h.Failed:
		return "failed"
	case h.Done:
		return "done"
	case h.IsOffline():
		return "offline"
	default:
		return "live"
	}
}

// update folds one message into h. Records and a recovery reset the failure
// streak and the error; a poll error extends it. Done keeps the last error,
// which is then the reason the source ended.
func (h *Health) update(msg ingest.Message) {
	switch msg.Kind {
	case ingest.KindRecords:
		h.Received += uint64(len(msg.Entries))
		h.ConsecutiveFailures = 0
		h.LastError = nil
	case ingest.KindRecovered:
		h.ConsecutiveFailures = 0
		h.LastError = nil
	case ingest.KindPollError:
		h.ConsecutiveFailures++
		h.LastError = msg.Err
	case ingest.KindStartError:
		h.Failed = true
		h.LastError = msg.Err
	case ingest.KindDone:
		h.Done = true
		h.ConsecutiveFailures = 0
	}
}
