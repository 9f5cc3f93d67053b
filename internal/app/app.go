package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ainergiz/xfeed/internal/storage"
	"github.com/ainergiz/xfeed/internal/xapi"
)

// Cache feed names.
const (
	FeedHome      = "home"
	FeedBookmarks = "bookmarks"
)

type Client interface {
	HomeTimeline(ctx context.Context, cursor string) ([]xapi.Tweet, string, error)
	Bookmarks(ctx context.Context, cursor string) ([]xapi.Tweet, string, error)
	Notifications(ctx context.Context, cursor string) ([]xapi.Notification, string, error)
	Replies(ctx context.Context, tweetID, cursor string) ([]xapi.Tweet, string, error)
	UserTweets(ctx context.Context, handle, cursor string) ([]xapi.Tweet, string, error)
	Tweet(ctx context.Context, id string) (xapi.Tweet, error)
	User(ctx context.Context, handle string) (xapi.User, error)
	VerifySession(ctx context.Context) (xapi.User, error)
	Like(ctx context.Context, id string) error
	Unlike(ctx context.Context, id string) error
	Bookmark(ctx context.Context, id string) error
	Unbookmark(ctx context.Context, id string) error
}

type Repository interface {
	SaveFeed(ctx context.Context, feed string, tweets []xapi.Tweet) error
	ListFeed(ctx context.Context, feed string, limit int) ([]xapi.Tweet, error)
	RemoveFromFeed(ctx context.Context, feed, tweetID string) error
	SetLiked(ctx context.Context, tweetID string, liked bool) error
	SetBookmarked(ctx context.Context, tweetID string, bookmarked bool) error
	SaveNotifications(ctx context.Context, notifications []xapi.Notification) error
	ListNotifications(ctx context.Context, limit int) ([]xapi.Notification, error)
	LoadPreferences(ctx context.Context) (storage.Preferences, error)
	SavePreferences(ctx context.Context, prefs storage.Preferences) error
}

var _ Repository = (*storage.Repository)(nil)
var _ Client = (*xapi.Client)(nil)

type Service struct {
	client Client
	repo   Repository
	logger *slog.Logger
}

func NewService(client Client, repo Repository) *Service {
	return &Service{client: client, repo: repo, logger: slog.Default()}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Snapshot is what the cache held at startup.
type Snapshot struct {
	Home          []xapi.Tweet
	Bookmarks     []xapi.Tweet
	Notifications []xapi.Notification
	Preferences   storage.Preferences
}

// WarmCache loads every cached first page concurrently.
func (s *Service) WarmCache(ctx context.Context, limit int) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tweets, err := s.repo.ListFeed(gctx, FeedHome, limit)
		if err != nil {
			return fmt.Errorf("load cached home timeline: %w", err)
		}
		snap.Home = tweets
		return nil
	})
	g.Go(func() error {
		tweets, err := s.repo.ListFeed(gctx, FeedBookmarks, limit)
		if err != nil {
			return fmt.Errorf("load cached bookmarks: %w", err)
		}
		snap.Bookmarks = tweets
		return nil
	})
	g.Go(func() error {
		notifications, err := s.repo.ListNotifications(gctx, limit)
		if err != nil {
			return fmt.Errorf("load cached notifications: %w", err)
		}
		snap.Notifications = notifications
		return nil
	})
	g.Go(func() error {
		prefs, err := s.repo.LoadPreferences(gctx)
		if err != nil {
			return fmt.Errorf("load preferences: %w", err)
		}
		snap.Preferences = prefs
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Service) HomeTimeline(ctx context.Context, cursor string) ([]xapi.Tweet, string, error) {
	tweets, next, err := s.client.HomeTimeline(ctx, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("fetch home timeline: %w", err)
	}
	if cursor == "" {
		s.cacheFeed(ctx, FeedHome, tweets)
	}
	return tweets, next, nil
}

func (s *Service) Bookmarks(ctx context.Context, cursor string) ([]xapi.Tweet, string, error) {
	tweets, next, err := s.client.Bookmarks(ctx, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("fetch bookmarks: %w", err)
	}
	if cursor == "" {
		s.cacheFeed(ctx, FeedBookmarks, tweets)
	}
	return tweets, next, nil
}

func (s *Service) Notifications(ctx context.Context, cursor string) ([]xapi.Notification, string, error) {
	notifications, next, err := s.client.Notifications(ctx, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("fetch notifications: %w", err)
	}
	if cursor == "" {
		if err := s.repo.SaveNotifications(ctx, notifications); err != nil {
			s.logger.Warn("cache notifications failed", "err", err)
		}
	}
	return notifications, next, nil
}

func (s *Service) Replies(ctx context.Context, tweetID, cursor string) ([]xapi.Tweet, string, error) {
	tweets, next, err := s.client.Replies(ctx, tweetID, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("fetch replies to %s: %w", tweetID, err)
	}
	return tweets, next, nil
}

func (s *Service) UserTweets(ctx context.Context, handle, cursor string) ([]xapi.Tweet, string, error) {
	tweets, next, err := s.client.UserTweets(ctx, handle, cursor)
	if err != nil {
		return nil, "", fmt.Errorf("fetch tweets by @%s: %w", handle, err)
	}
	return tweets, next, nil
}

func (s *Service) Profile(ctx context.Context, handle string) (xapi.User, error) {
	user, err := s.client.User(ctx, handle)
	if err != nil {
		return xapi.User{}, fmt.Errorf("fetch profile @%s: %w", handle, err)
	}
	return user, nil
}

func (s *Service) Tweet(ctx context.Context, id string) (xapi.Tweet, error) {
	tweet, err := s.client.Tweet(ctx, id)
	if err != nil {
		return xapi.Tweet{}, fmt.Errorf("fetch tweet %s: %w", id, err)
	}
	return tweet, nil
}

func (s *Service) VerifySession(ctx context.Context) (xapi.User, error) {
	user, err := s.client.VerifySession(ctx)
	if err != nil {
		return xapi.User{}, fmt.Errorf("verify session: %w", err)
	}
	return user, nil
}

// Like and the other mutations keep the cached flag in step with the
// server. An already-applied answer still updates the cache.
func (s *Service) Like(ctx context.Context, id string) error {
	err := s.client.Like(ctx, id)
	if err == nil || errors.Is(err, xapi.ErrAlreadyApplied) {
		s.cacheLiked(ctx, id, true)
	}
	if err != nil {
		return fmt.Errorf("like %s: %w", id, err)
	}
	return nil
}

func (s *Service) Unlike(ctx context.Context, id string) error {
	err := s.client.Unlike(ctx, id)
	if err == nil || errors.Is(err, xapi.ErrTargetNotFound) {
		s.cacheLiked(ctx, id, false)
	}
	if err != nil {
		return fmt.Errorf("unlike %s: %w", id, err)
	}
	return nil
}

func (s *Service) Bookmark(ctx context.Context, id string) error {
	err := s.client.Bookmark(ctx, id)
	if err == nil || errors.Is(err, xapi.ErrAlreadyApplied) {
		s.cacheBookmarked(ctx, id, true)
	}
	if err != nil {
		return fmt.Errorf("bookmark %s: %w", id, err)
	}
	return nil
}

func (s *Service) Unbookmark(ctx context.Context, id string) error {
	err := s.client.Unbookmark(ctx, id)
	if err == nil || errors.Is(err, xapi.ErrTargetNotFound) {
		s.cacheBookmarked(ctx, id, false)
		if rmErr := s.repo.RemoveFromFeed(ctx, FeedBookmarks, id); rmErr != nil {
			s.logger.Warn("drop cached bookmark failed", "tweet", id, "err", rmErr)
		}
	}
	if err != nil {
		return fmt.Errorf("remove bookmark %s: %w", id, err)
	}
	return nil
}

func (s *Service) SavePreferences(ctx context.Context, prefs storage.Preferences) error {
	if err := s.repo.SavePreferences(ctx, prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// Cache writes never fail the request; a stale cache only costs a refresh.
func (s *Service) cacheFeed(ctx context.Context, feed string, tweets []xapi.Tweet) {
	if err := s.repo.SaveFeed(ctx, feed, tweets); err != nil {
		s.logger.Warn("cache feed failed", "feed", feed, "err", err)
	}
}

func (s *Service) cacheLiked(ctx context.Context, id string, liked bool) {
	if err := s.repo.SetLiked(ctx, id, liked); err != nil {
		s.logger.Warn("cache liked state failed", "tweet", id, "err", err)
	}
}

func (s *Service) cacheBookmarked(ctx context.Context, id string, bookmarked bool) {
	if err := s.repo.SetBookmarked(ctx, id, bookmarked); err != nil {
		s.logger.Warn("cache bookmarked state failed", "tweet", id, "err", err)
	}
}
