// Package viewstate keeps the state behind client screens: what is loading,
// what was loaded and what went wrong. Each view notifies its listeners on
// every change.
package viewstate

import (
	"context"
	"sync"

	"crwn/internal/models"
	"crwn/internal/result"
	"crwn/internal/service"
)

// PostLister is satisfied by *service.PostService.
type PostLister interface {
	ListPosts(ctx context.Context, in service.ListPostsInput) result.Result[[]*models.Post]
}

// PostsState is a snapshot of a PostsList.
type PostsState struct {
	Items   []*models.Post
	Loading bool
	Err     error
}

// PostsList is a feed of posts, either public or one author's.
//
// Fetches are not de-duplicated or cancelled; when two overlap the one that
// finishes last sets the state.
type PostsList struct {
	lister   PostLister
	viewerID uint

	mu        sync.Mutex
	scope     uint
	state     PostsState
	listeners listeners[PostsState]
}

// NewPostsList creates a list for viewerID. scope 0 is the public feed.
func NewPostsList(lister PostLister, viewerID, scope uint) *PostsList {
	return &PostsList{
		lister:   lister,
		viewerID: viewerID,
		scope:    scope,
		state:    PostsState{Items: []*models.Post{}},
	}
}

// Mount performs the first fetch.
func (l *PostsList) Mount(ctx context.Context) PostsState {
	return l.fetch(ctx)
}

// SetScope switches to another author (0 for the public feed) and refetches
// when the scope changed.
func (l *PostsList) SetScope(ctx context.Context, userID uint) PostsState {
	l.mu.Lock()
	if l.scope == userID {
		s := l.state
		l.mu.Unlock()
		return s
	}
	l.scope = userID
	l.mu.Unlock()
	return l.fetch(ctx)
}

// Refresh reissues the current fetch.
func (l *PostsList) Refresh(ctx context.Context) PostsState {
	return l.fetch(ctx)
}

func (l *PostsList) State() PostsState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// IsEmpty reports a finished, successful fetch with no posts.
func (l *PostsList) IsEmpty() bool {
	s := l.State()
	return !s.Loading && s.Err == nil && len(s.Items) == 0
}

func (l *PostsList) OnChange(fn func(PostsState)) func() {
	return l.listeners.add(fn)
}

func (l *PostsList) fetch(ctx context.Context) PostsState {
	l.mu.Lock()
	scope := l.scope
	l.state.Loading = true
	l.state.Err = nil
	loading := l.state
	l.mu.Unlock()
	l.listeners.emit(loading)

	items, err := l.lister.ListPosts(ctx, service.ListPostsInput{UserID: scope, ViewerID: l.viewerID}).Unwrap()
	if items == nil {
		items = []*models.Post{}
	}

	l.mu.Lock()
	if err != nil {
		// A failed fetch keeps whatever was shown before.
		l.state.Loading = false
		l.state.Err = err
	} else {
		l.state = PostsState{Items: items}
	}
	done := l.state
	l.mu.Unlock()
	l.listeners.emit(done)
	return done
}

// listeners is a set of change callbacks.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

func (ls *listeners[T]) add(fn func(T)) func() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.fns == nil {
		ls.fns = make(map[int]func(T))
	}
	id := ls.next
	ls.next++
	ls.fns[id] = fn
	return func() {
		ls.mu.Lock()
		delete(ls.fns, id)
		ls.mu.Unlock()
	}
}

func (ls *listeners[T]) emit(v T) {
	ls.mu.Lock()
	fns := make([]func(T), 0, len(ls.fns))
	for i := 0; i < ls.next; i++ {
		if fn, ok := ls.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	ls.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}
