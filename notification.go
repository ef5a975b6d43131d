package sparklr

// NotificationType classifies a notification, mapped from the raw integer
// the API sends. Unrecognized values map to NotificationUnknown rather than
// failing the fetch.
type NotificationType int

const (
	// NotificationUnknown is any type the SDK does not recognize.
	NotificationUnknown NotificationType = iota
	// NotificationLike signals a like on one of your posts.
	NotificationLike
	// NotificationComment signals a comment on one of your posts.
	NotificationComment
	// NotificationRepost signals a repost of one of your posts.
	NotificationRepost
	// NotificationFollow signals a new follower.
	NotificationFollow
	// NotificationMention signals a mention in someone else's post.
	NotificationMention
)

// String returns the string representation of the notification type.
func (t NotificationType) String() string {
	switch t {
	case NotificationLike:
		return "like"
	case NotificationComment:
		return "comment"
	case NotificationRepost:
		return "repost"
	case NotificationFollow:
		return "follow"
	case NotificationMention:
		return "mention"
	default:
		return "unknown"
	}
}

func notificationTypeFromWire(raw int) NotificationType {
	if raw >= int(NotificationLike) && raw <= int(NotificationMention) {
		return NotificationType(raw)
	}
	return NotificationUnknown
}

// Notification is a single entry from the notifications feed. Notifications
// are not identity-cached: every Notifications call produces fresh instances
// even when an id recurs. Their From and To users are canonical cached users.
type Notification struct {
	id     int64
	from   *User
	to     *User
	ntype  NotificationType
	time   int64
	body   string
	action string
}

// ID returns the notification's identifier.
func (n *Notification) ID() int64 { return n.id }

// From returns the user whose activity produced the notification.
func (n *Notification) From() *User { return n.from }

// To returns the user the notification is addressed to.
func (n *Notification) To() *User { return n.to }

// Type returns the notification's classified type.
func (n *Notification) Type() NotificationType { return n.ntype }

// Time returns the origin-assigned timestamp.
func (n *Notification) Time() int64 { return n.time }

// Body returns the notification text.
func (n *Notification) Body() string { return n.body }

// Action returns the action string attached to the notification.
func (n *Notification) Action() string { return n.action }
