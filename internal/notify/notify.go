// Package notify pushes render events to the owning user's channel.
// Delivery is best-effort: the pipeline logs publish failures and moves on,
// it never blocks job-state persistence on a notification.
package notify

import (
	"context"
	"fmt"
)

// Event names as the client subscribes to them.
const (
	EventProgress = "video-progress"
	EventComplete = "video-complete"
	EventError    = "video-error"
)

// ProgressEvent is emitted after each pipeline stage.
type ProgressEvent struct {
	VideoID  string `json:"videoId"`
	Progress int    `json:"progress"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CompleteEvent is emitted once, on successful completion.
type CompleteEvent struct {
	VideoID      string `json:"videoId"`
	VideoURL     string `json:"videoUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ErrorEvent is emitted once, on failure.
type ErrorEvent struct {
	VideoID string `json:"videoId"`
	Error   string `json:"error"`
}

// Publisher is the transport under the notifier: redis pub/sub or a
// rabbitmq topic exchange, selected by configuration.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// Notifier addresses the per-user channel and names the events.
type Notifier struct {
	pub Publisher
}

func New(pub Publisher) *Notifier {
	return &Notifier{pub: pub}
}

// Channel returns the notification channel key for a user.
func Channel(userID string) string {
	return fmt.Sprintf("user-%s", userID)
}

func (n *Notifier) Progress(ctx context.Context, userID string, ev ProgressEvent) error {
	return n.pub.Publish(ctx, Channel(userID), EventProgress, ev)
}

func (n *Notifier) Complete(ctx context.Context, userID string, ev CompleteEvent) error {
	return n.pub.Publish(ctx, Channel(userID), EventComplete, ev)
}

func (n *Notifier) Error(ctx context.Context, userID string, ev ErrorEvent) error {
	return n.pub.Publish(ctx, Channel(userID), EventError, ev)
}

// envelope is the wire shape shared by all transports.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}
