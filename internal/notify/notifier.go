// Package notify centralizes the mutation-then-notify split: persistence
// failures are the caller's problem, realtime delivery failures never are.
package notify

import (
	"log"
	"strconv"
	"time"

	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/ws"
)

// Broadcaster is the slice of the hub the notifier publishes through.
type Broadcaster interface {
	EmitToRoom(room string, event string, data any)
	EmitToUser(userID string, event string, data any)
	Broadcast(event string, data any)
}

// Notifier fans out domain events after successful mutations. Every method is
// best-effort: a missing hub or a panic inside delivery is logged and counted,
// never returned.
type Notifier struct {
	hub Broadcaster
}

// NewNotifier constructs a Notifier. A nil hub is tolerated; deliveries are
// then skipped and counted as failures.
func NewNotifier(hub Broadcaster) *Notifier {
	return &Notifier{hub: hub}
}

// MessageCreated announces a persisted direct message to the conversation room.
func (n *Notifier) MessageCreated(conv models.Conversation, msg models.Message, sender models.User) {
	n.deliver(models.EventNewMessage, func(hub Broadcaster) {
		senderID := strconv.Itoa(msg.SenderID)
		receiverID := strconv.Itoa(msg.ReceiverID)
		hub.EmitToRoom(ws.PairwiseRoom(senderID, receiverID), models.EventNewMessage, models.MessagePayload{
			ID:             strconv.Itoa(msg.ID),
			SenderID:       senderID,
			ReceiverID:     receiverID,
			Message:        msg.Content,
			ConversationID: strconv.Itoa(conv.ID),
			Sender:         sender.Profile(),
			CreatedAt:      msg.CreatedAt,
		})
	})
}

// PostLiked notifies the author (unless they liked their own post) and
// broadcasts the new like count to every viewer.
func (n *Notifier) PostLiked(post models.Post, liker models.User, likes int, newlyLiked bool) {
	if newlyLiked && post.AuthorID != liker.ID {
		n.notifyUser(post.AuthorID, liker, models.NotificationLike, liker.Username+" liked your post", post.ID)
	}
	n.postUpdate(post.ID, models.NotificationLike, &likes, nil)
}

// PostDisliked broadcasts the reduced like count.
func (n *Notifier) PostDisliked(post models.Post, likes int) {
	n.postUpdate(post.ID, "dislike", &likes, nil)
}

// CommentAdded notifies the author (unless self-comment) and broadcasts the
// new comment count.
func (n *Notifier) CommentAdded(post models.Post, commenter models.User, comments int) {
	if post.AuthorID != commenter.ID {
		n.notifyUser(post.AuthorID, commenter, models.NotificationComment, commenter.Username+" commented on your post", post.ID)
	}
	n.postUpdate(post.ID, models.NotificationComment, nil, &comments)
}

// UserFollowed notifies the followed user. Unfollow fans out nothing.
func (n *Notifier) UserFollowed(follower models.User, followeeID int) {
	n.notifyUser(followeeID, follower, models.NotificationFollow, follower.Username+" started following you", 0)
}

func (n *Notifier) notifyUser(receiverID int, sender models.User, kind, message string, postID int) {
	n.deliver(models.EventNewNotification, func(hub Broadcaster) {
		payload := models.NotificationPayload{
			SenderID:   sender.WireID(),
			ReceiverID: strconv.Itoa(receiverID),
			Type:       kind,
			Message:    message,
			Sender:     sender.Profile(),
			CreatedAt:  timeNow(),
		}
		if postID != 0 {
			payload.PostID = strconv.Itoa(postID)
		}
		hub.EmitToUser(payload.ReceiverID, models.EventNewNotification, payload)
	})
}

func (n *Notifier) postUpdate(postID int, kind string, likes, comments *int) {
	n.deliver(models.EventPostUpdate, func(hub Broadcaster) {
		hub.Broadcast(models.EventPostUpdate, models.PostUpdatePayload{
			PostID:   strconv.Itoa(postID),
			Likes:    likes,
			Comments: comments,
			Type:     kind,
		})
	})
}

func timeNow() time.Time {
	return time.Now().UTC()
}

// deliver runs one fan-out step under the soft-failure policy.
func (n *Notifier) deliver(event string, fn func(Broadcaster)) {
	if n == nil || n.hub == nil {
		log.Printf("realtime delivery skipped for %s: fan-out not initialized", event)
		observability.IncNotifyFailure(event)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("realtime delivery failed for %s: %v", event, r)
			observability.IncNotifyFailure(event)
		}
	}()
	fn(n.hub)
}
