package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ScopeKind selects which listing a video or photo request reads from
type ScopeKind int

const (
	ScopeAll ScopeKind = iota
	ScopeFeatured
	ScopeCategory
	ScopeChannel
	ScopeUser
	ScopeSearch
)

// Scope identifies a listing, e.g. all videos or the videos of one channel
type Scope struct {
	Kind   ScopeKind
	Slug   string // Category or channel slug
	UserID uint64
}

func AllScope() Scope                 { return Scope{Kind: ScopeAll} }
func FeaturedScope() Scope            { return Scope{Kind: ScopeFeatured} }
func SearchScope() Scope              { return Scope{Kind: ScopeSearch} }
func CategoryScope(slug string) Scope { return Scope{Kind: ScopeCategory, Slug: slug} }
func ChannelScope(slug string) Scope  { return Scope{Kind: ScopeChannel, Slug: slug} }
func UserScope(userID uint64) Scope   { return Scope{Kind: ScopeUser, UserID: userID} }

// String returns the cache key form: all, featured, search, category:<slug>,
// channel:<slug> or user:<id>
func (s Scope) String() string {
	switch s.Kind {
	case ScopeFeatured:
		return "featured"
	case ScopeSearch:
		return "search"
	case ScopeCategory:
		return "category:" + s.Slug
	case ScopeChannel:
		return "channel:" + s.Slug
	case ScopeUser:
		return "user:" + strconv.FormatUint(s.UserID, 10)
	default:
		return "all"
	}
}

// ParseScope is the inverse of Scope.String
func ParseScope(s string) (Scope, error) {
	kind, arg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch kind {
	case "", "all":
		return AllScope(), nil
	case "featured":
		return FeaturedScope(), nil
	case "search":
		return SearchScope(), nil
	case "category", "channel":
		if arg == "" {
			return Scope{}, ValidationError("parse scope", fmt.Errorf("%s scope needs a slug", kind))
		}
		if kind == "category" {
			return CategoryScope(arg), nil
		}
		return ChannelScope(arg), nil
	case "user":
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return Scope{}, ValidationError("parse scope", fmt.Errorf("invalid user id %q", arg))
		}
		return UserScope(id), nil
	}
	return Scope{}, ValidationError("parse scope", fmt.Errorf("unknown scope %q", s))
}
