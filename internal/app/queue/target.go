package queue

import "github.com/osa030/mediaqueue/internal/domain/media"

// Target selects what Queue.Play should play.
// The variants are PositionTarget, MediaTarget, QueueTarget and TextTarget.
type Target interface {
	isTarget()
}

// PositionTarget plays the item at a position of the queue itself.
type PositionTarget int

// MediaTarget plays a specific Media.
type MediaTarget struct{ Media *media.Media }

// QueueTarget plays the head item of another queue.
type QueueTarget struct{ Queue *Queue }

// TextTarget runs text through extractor resolution and plays the result.
type TextTarget string

func (PositionTarget) isTarget() {}
func (MediaTarget) isTarget()    {}
func (QueueTarget) isTarget()    {}
func (TextTarget) isTarget()     {}

// ByPosition targets the item at position.
func ByPosition(position int) Target { return PositionTarget(position) }

// ByMedia targets m.
func ByMedia(m *media.Media) Target { return MediaTarget{Media: m} }

// ByQueue targets the head item of q.
func ByQueue(q *Queue) Target { return QueueTarget{Queue: q} }

// ByText targets whatever the extractors resolve input to.
func ByText(input string) Target { return TextTarget(input) }
