package models

type EventName string

const (
	EventPostCreated        EventName = "post.created"
	EventPostStatusChanged  EventName = "post.status_changed"
	EventPostVoted          EventName = "post.voted"
	EventCommentCreated     EventName = "comment.created"
	EventChangelogPublished EventName = "changelog.published"
)

// Events lists every event name a subscription may ask for.
var Events = []EventName{
	EventPostCreated,
	EventPostStatusChanged,
	EventPostVoted,
	EventCommentCreated,
	EventChangelogPublished,
}

func (e EventName) Valid() bool {
	for _, known := range Events {
		if e == known {
			return true
		}
	}
	return false
}
