package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/models"
	"social-service/internal/ws"
)

type emit struct {
	target string
	event  string
	data   any
}

// recorder captures every fan-out call for assertions.
type recorder struct {
	rooms      []emit
	users      []emit
	broadcasts []emit
}

func (r *recorder) EmitToRoom(room, event string, data any) {
	r.rooms = append(r.rooms, emit{target: room, event: event, data: data})
}

func (r *recorder) EmitToUser(userID, event string, data any) {
	r.users = append(r.users, emit{target: userID, event: event, data: data})
}

func (r *recorder) Broadcast(event string, data any) {
	r.broadcasts = append(r.broadcasts, emit{event: event, data: data})
}

type panicker struct{}

func (panicker) EmitToRoom(string, string, any) { panic("hub gone") }
func (panicker) EmitToUser(string, string, any) { panic("hub gone") }
func (panicker) Broadcast(string, any)          { panic("hub gone") }

func TestMessageCreatedTargetsConversationRoom(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	conv := models.Conversation{ID: 3, User1ID: 1, User2ID: 2}
	msg := models.Message{ID: 10, ConversationID: 3, SenderID: 2, ReceiverID: 1, Content: "hey", CreatedAt: time.Now()}
	notifier.MessageCreated(conv, msg, models.User{ID: 2, Username: "bob"})

	require.Len(t, rec.rooms, 1)
	assert.Equal(t, ws.PairwiseRoom("1", "2"), rec.rooms[0].target)
	assert.Equal(t, models.EventNewMessage, rec.rooms[0].event)

	payload, ok := rec.rooms[0].data.(models.MessagePayload)
	require.True(t, ok)
	assert.Equal(t, "10", payload.ID)
	assert.Equal(t, "2", payload.SenderID)
	assert.Equal(t, "1", payload.ReceiverID)
	assert.Equal(t, "hey", payload.Message)
	assert.Equal(t, "3", payload.ConversationID)
	assert.Equal(t, "bob", payload.Sender.Username)
	assert.Empty(t, rec.users)
	assert.Empty(t, rec.broadcasts)
}

func TestPostLikedNotifiesAuthorAndBroadcasts(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	post := models.Post{ID: 5, AuthorID: 1}
	liker := models.User{ID: 2, Username: "bob"}
	notifier.PostLiked(post, liker, 4, true)

	require.Len(t, rec.users, 1)
	assert.Equal(t, "1", rec.users[0].target)
	notification, ok := rec.users[0].data.(models.NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, models.NotificationLike, notification.Type)
	assert.Equal(t, "bob liked your post", notification.Message)
	assert.Equal(t, "5", notification.PostID)

	require.Len(t, rec.broadcasts, 1)
	update, ok := rec.broadcasts[0].data.(models.PostUpdatePayload)
	require.True(t, ok)
	assert.Equal(t, "5", update.PostID)
	require.NotNil(t, update.Likes)
	assert.Equal(t, 4, *update.Likes)
	assert.Nil(t, update.Comments)
	assert.Equal(t, models.NotificationLike, update.Type)
}

func TestPostLikedSelfLikeSkipsNotification(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	post := models.Post{ID: 5, AuthorID: 2}
	notifier.PostLiked(post, models.User{ID: 2, Username: "bob"}, 1, true)

	assert.Empty(t, rec.users)
	require.Len(t, rec.broadcasts, 1)
}

func TestPostLikedRepeatLikeSkipsNotification(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	post := models.Post{ID: 5, AuthorID: 1}
	notifier.PostLiked(post, models.User{ID: 2, Username: "bob"}, 4, false)

	assert.Empty(t, rec.users)
	require.Len(t, rec.broadcasts, 1)
}

func TestPostDislikedBroadcastsOnly(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	notifier.PostDisliked(models.Post{ID: 5, AuthorID: 1}, 3)

	assert.Empty(t, rec.users)
	require.Len(t, rec.broadcasts, 1)
	update := rec.broadcasts[0].data.(models.PostUpdatePayload)
	require.NotNil(t, update.Likes)
	assert.Equal(t, 3, *update.Likes)
	assert.Equal(t, "dislike", update.Type)
}

func TestCommentAddedNotifiesAuthorAndBroadcasts(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	post := models.Post{ID: 5, AuthorID: 1}
	notifier.CommentAdded(post, models.User{ID: 3, Username: "carol"}, 7)

	require.Len(t, rec.users, 1)
	notification := rec.users[0].data.(models.NotificationPayload)
	assert.Equal(t, models.NotificationComment, notification.Type)
	assert.Equal(t, "carol commented on your post", notification.Message)

	require.Len(t, rec.broadcasts, 1)
	update := rec.broadcasts[0].data.(models.PostUpdatePayload)
	assert.Nil(t, update.Likes)
	require.NotNil(t, update.Comments)
	assert.Equal(t, 7, *update.Comments)
}

func TestUserFollowedNotifiesFollowee(t *testing.T) {
	rec := &recorder{}
	notifier := NewNotifier(rec)

	notifier.UserFollowed(models.User{ID: 2, Username: "bob"}, 1)

	require.Len(t, rec.users, 1)
	assert.Equal(t, "1", rec.users[0].target)
	notification := rec.users[0].data.(models.NotificationPayload)
	assert.Equal(t, models.NotificationFollow, notification.Type)
	assert.Equal(t, "bob started following you", notification.Message)
	assert.Empty(t, notification.PostID)
}

func TestNilHubDoesNotPanic(t *testing.T) {
	notifier := NewNotifier(nil)

	assert.NotPanics(t, func() {
		notifier.MessageCreated(models.Conversation{}, models.Message{}, models.User{})
		notifier.PostLiked(models.Post{ID: 1, AuthorID: 2}, models.User{ID: 3}, 1, true)
		notifier.UserFollowed(models.User{ID: 3}, 2)
	})
}

func TestPanickingHubIsContained(t *testing.T) {
	notifier := NewNotifier(panicker{})

	assert.NotPanics(t, func() {
		notifier.MessageCreated(models.Conversation{ID: 1}, models.Message{SenderID: 1, ReceiverID: 2}, models.User{ID: 1})
		notifier.PostLiked(models.Post{ID: 1, AuthorID: 2}, models.User{ID: 3, Username: "x"}, 1, true)
		notifier.CommentAdded(models.Post{ID: 1, AuthorID: 2}, models.User{ID: 3}, 1)
		notifier.UserFollowed(models.User{ID: 3}, 2)
	})
}
