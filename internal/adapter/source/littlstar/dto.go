package littlstar

import "encoding/json"

// envelope wraps every response from the Littlstar API
type envelope[T any] struct {
	Meta   MetaDTO         `json:"meta"`
	Data   T               `json:"data"`
	Errors json.RawMessage `json:"errors,omitempty"` // string or list of strings
	Error  string          `json:"error,omitempty"`
}

// MetaDTO carries the status and pagination block
type MetaDTO struct {
	Status     int            `json:"status"`
	Pagination *PaginationDTO `json:"pagination,omitempty"`
}

// PaginationDTO describes the page a list response belongs to
type PaginationDTO struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// UserDTO represents a Littlstar user
type UserDTO struct {
	ID             uint64 `json:"id"`
	Slug           string `json:"slug"`
	DisplayName    string `json:"display_name"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	Email          string `json:"email,omitempty"`
	VideosCount    int    `json:"videos_count"`
	PhotosCount    int    `json:"photos_count"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	Following      bool   `json:"following"`
	CreatedAt      string `json:"created_at"`
	APIKey         string `json:"api_key,omitempty"` // Only on login/register
}

// VideoDTO represents a 360° video
type VideoDTO struct {
	ID            uint64   `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	BannerURL     string   `json:"banner_url"`
	ThumbURL      string   `json:"thumb_url"`
	SmallThumbURL string   `json:"small_thumb_url"`
	StreamURL     string   `json:"stream_url"`
	DownloadURL   string   `json:"download_url,omitempty"`
	Duration      float64  `json:"duration"` // Seconds
	Download      bool     `json:"download"`
	Views         int      `json:"views"`
	Stars         int      `json:"stars"`
	Downvotes     int      `json:"downvotes"`
	Starred       bool     `json:"starred"`
	Downvoted     bool     `json:"downvoted"`
	User          *UserDTO `json:"user,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

// PhotoDTO represents a 360° photo
type PhotoDTO struct {
	ID            uint64   `json:"id"`
	Slug          string   `json:"slug"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	ImageURL      string   `json:"image_url"`
	ThumbURL      string   `json:"thumb_url"`
	SmallThumbURL string   `json:"small_thumb_url"`
	SBS3D         bool     `json:"sbs3d"`
	OU3D          bool     `json:"ou3d"`
	FOVDefault    float64  `json:"fov_default"`
	FOVMin        float64  `json:"fov_min"`
	FOVMax        float64  `json:"fov_max"`
	Yaw           float64  `json:"yaw"`
	Views         int      `json:"views"`
	Stars         int      `json:"stars"`
	Downvotes     int      `json:"downvotes"`
	Starred       bool     `json:"starred"`
	Downvoted     bool     `json:"downvoted"`
	User          *UserDTO `json:"user,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

// CategoryDTO represents a content category
type CategoryDTO struct {
	ID         uint64 `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	VideoCount int    `json:"videos_count"`
	PhotoCount int    `json:"photos_count"`
	ThumbURL   string `json:"thumb_url"`
}

// ChannelDTO represents a curated channel
type ChannelDTO struct {
	ID         uint64   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	VideoCount int      `json:"videos_count"`
	PhotoCount int      `json:"photos_count"`
	Sponsored  bool     `json:"sponsored"`
	Featured   bool     `json:"featured"`
	ThumbURL   string   `json:"thumb_url"`
	BannerURL  string   `json:"banner_url"`
	User       *UserDTO `json:"user,omitempty"`
}

// CommentDTO represents a comment on a video
type CommentDTO struct {
	ID        uint64   `json:"id"`
	Body      string   `json:"body"`
	CreatedAt string   `json:"created_at"`
	User      *UserDTO `json:"user,omitempty"`
}

// NotificationDTO represents an activity notification
type NotificationDTO struct {
	ID        uint64   `json:"id"`
	Action    string   `json:"action"`
	Text      string   `json:"text"`
	Actor     *UserDTO `json:"actor,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// loginRequest is the body of POST /login
type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// registerRequest is the body of POST /register
type registerRequest struct {
	Username             string `json:"username"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// commentRequest is the body of POST /videos/{id}/comments
type commentRequest struct {
	Body string `json:"body"`
}
