package domain

// Event is anything delivered through the notification hub.
// Only types in this package implement it.
type Event interface {
	event()
}

// Observer receives events on the notification goroutine, one at a time.
// Observers are identified by interface equality, so implement them on
// pointer types. Func and map types cannot be registered.
type Observer interface {
	Notify(Event)
}

// Publisher queues events for delivery to registered observers
type Publisher interface {
	Publish(Event)
}

// Op names a catalog request verb
type Op string

const (
	OpVideos         Op = "videos"
	OpFeaturedVideos Op = "featured_videos"
	OpPhotos         Op = "photos"
	OpFeaturedPhotos Op = "featured_photos"
	OpSearchVideos   Op = "search_videos"
	OpSearchPhotos   Op = "search_photos"
	OpSearchUsers    Op = "search_users"
	OpCategoryVideos Op = "category_videos"
	OpCategoryPhotos Op = "category_photos"
	OpChannelVideos  Op = "channel_videos"
	OpChannelPhotos  Op = "channel_photos"
	OpUserVideos     Op = "user_videos"
	OpUserPhotos     Op = "user_photos"
	OpCategories     Op = "categories"
	OpChannels       Op = "channels"
	OpComments       Op = "comments"
	OpFollowers      Op = "followers"
	OpFollowing      Op = "following"
	OpNotifications  Op = "notifications"
	OpVideo          Op = "video"
	OpRefreshVideo   Op = "refresh_video"
	OpPhoto          Op = "photo"
	OpUser           Op = "user"
	OpMe             Op = "me"
	OpCategory       Op = "category"
	OpChannel        Op = "channel"
	OpPostComment    Op = "post_comment"
)

// ListResult completes a list request. Exactly one of Page and Err is set.
type ListResult[T any] struct {
	RequestID string
	Op        Op
	Page      *Page[T]
	Err       error
}

func (ListResult[T]) event() {}

// ItemResult completes a single-item request. Exactly one of Item and Err is set.
type ItemResult[T any] struct {
	RequestID string
	Op        Op
	Item      *T
	Err       error
}

func (ItemResult[T]) event() {}

// SyncProgress reports progress while a full listing is synchronized.
type SyncProgress struct {
	RequestID string
	Scope     string
	Loaded    int
	Total     int
	Done      bool
	FromCache bool
	Err       error
}

func (SyncProgress) event() {}

// AuthAttempt identifies how a session was requested
type AuthAttempt int

const (
	AttemptLogin AuthAttempt = iota
	AttemptRegister
	AttemptExternal
)

func (a AuthAttempt) String() string {
	switch a {
	case AttemptRegister:
		return "register"
	case AttemptExternal:
		return "external"
	default:
		return "login"
	}
}

// LoginFinished completes a login, register or external-token attempt.
// Exactly one of User and Err is set.
type LoginFinished struct {
	RequestID string
	Attempt   AuthAttempt
	User      *User
	Err       error
}

func (LoginFinished) event() {}

// LoggedOut is published after the session is cleared
type LoggedOut struct{}

func (LoggedOut) event() {}

// EngagementTarget is the kind of item a toggle applies to
type EngagementTarget int

const (
	TargetVideo EngagementTarget = iota
	TargetPhoto
	TargetUser
)

// EngagementPhase marks where a toggle is in its lifecycle
type EngagementPhase int

const (
	PhaseOptimistic EngagementPhase = iota // Local flip applied, request queued
	PhaseConfirmed                         // Server snapshot applied
	PhaseRolledBack                        // Request failed, last confirmed state restored
)

func (p EngagementPhase) String() string {
	switch p {
	case PhaseConfirmed:
		return "confirmed"
	case PhaseRolledBack:
		return "rolled back"
	default:
		return "optimistic"
	}
}

// EngagementChanged carries the current local snapshot of a toggled item.
// Exactly one of Video, Photo and User is set, matching Target.
// Err is only set when Phase is PhaseRolledBack.
type EngagementChanged struct {
	Target EngagementTarget
	ID     uint64
	Phase  EngagementPhase
	Video  *Video
	Photo  *Photo
	User   *User
	Err    error
}

func (EngagementChanged) event() {}

// DownloadStarted is published once the transfer has begun.
// TotalBytes is -1 when the service did not declare a length.
type DownloadStarted struct {
	Video      *Video
	TotalBytes int64
}

func (DownloadStarted) event() {}

// DownloadProgress reports bytes written so far. Written never decreases.
type DownloadProgress struct {
	Video   *Video
	Written int64
	Total   int64
}

// Fraction returns progress in [0,1], or 0 when the total is unknown
func (p DownloadProgress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Written) / float64(p.Total)
}

func (DownloadProgress) event() {}

// DownloadFinished carries the video with its local path set
type DownloadFinished struct {
	Video *Video
}

func (DownloadFinished) event() {}

// DownloadCancelled is the last event for a cancelled transfer
type DownloadCancelled struct {
	Video *Video
}

func (DownloadCancelled) event() {}

// DownloadFailed is the last event for a failed transfer
type DownloadFailed struct {
	Video *Video
	Err   error
}

func (DownloadFailed) event() {}

// DownloadDeleted reports the outcome of removing a local copy
type DownloadDeleted struct {
	VideoID uint64
	Err     error
}

func (DownloadDeleted) event() {}
