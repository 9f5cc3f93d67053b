package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ainergiz/xfeed/internal/storage"
	"github.com/ainergiz/xfeed/internal/xapi"
)

type Service interface {
	Profile(ctx context.Context, handle string) (xapi.User, error)
	Tweet(ctx context.Context, id string) (xapi.Tweet, error)
	VerifySession(ctx context.Context) (xapi.User, error)
	SavePreferences(ctx context.Context, prefs storage.Preferences) error
}

type ProfileLoadedMsg struct {
	Handle string
	User   xapi.User
}

type ProfileErrorMsg struct {
	Handle string
	Err    error
}

type TweetLoadedMsg struct {
	Tweet xapi.Tweet
}

type TweetLoadErrorMsg struct {
	ID  string
	Err error
}

type SessionVerifiedMsg struct {
	User     xapi.User
	Duration time.Duration
}

type SessionErrorMsg struct {
	Err      error
	Duration time.Duration
}

type PreferencesSavedMsg struct {
	Preferences storage.Preferences
	Status      string
}

type PreferencesErrorMsg struct {
	Err error
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

func LoadProfileCmd(service Service, handle string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := service.Profile(ctx, handle)
		if err != nil {
			return ProfileErrorMsg{Handle: handle, Err: err}
		}
		return ProfileLoadedMsg{Handle: handle, User: user}
	}
}

func LoadTweetCmd(service Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		tweet, err := service.Tweet(ctx, id)
		if err != nil {
			return TweetLoadErrorMsg{ID: id, Err: err}
		}
		return TweetLoadedMsg{Tweet: tweet}
	}
}

func VerifySessionCmd(service Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		start := time.Now()

		user, err := service.VerifySession(ctx)
		if err != nil {
			return SessionErrorMsg{Err: err, Duration: time.Since(start)}
		}
		return SessionVerifiedMsg{User: user, Duration: time.Since(start)}
	}
}

func SavePreferencesCmd(service Service, prefs storage.Preferences) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := service.SavePreferences(ctx, prefs); err != nil {
			return PreferencesErrorMsg{Err: err}
		}
		status := "Absolute timestamps"
		if prefs.RelativeTime {
			status = "Relative timestamps"
		}
		return PreferencesSavedMsg{Preferences: prefs, Status: status}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, link copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open link or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Link copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy link to clipboard")}
	}
}
