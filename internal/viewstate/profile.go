package viewstate

import (
	"context"
	"sync"

	"crwn/internal/models"
	"crwn/internal/result"
)

// ProfileLoader is satisfied by *service.ProfileService.
type ProfileLoader interface {
	GetProfile(ctx context.Context, id uint) result.Result[*models.Profile]
}

// AvatarUploader is satisfied by *service.ProfileService.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID uint, data []byte) result.Result[string]
}

// PlaceholderProfile is shown when a profile cannot be loaded.
func PlaceholderProfile(id uint) *models.Profile {
	return &models.Profile{
		ID:       id,
		Username: "crwn_member",
		FullName: "CRWN Member",
		UserType: models.UserTypeExplorer,
	}
}

type ProfileState struct {
	Profile *models.Profile
	Loading bool
	Err     error
}

// ProfileView loads one profile. A failed load shows PlaceholderProfile and
// keeps the error.
type ProfileView struct {
	loader ProfileLoader

	mu        sync.Mutex
	state     ProfileState
	listeners listeners[ProfileState]
}

func NewProfileView(loader ProfileLoader) *ProfileView {
	return &ProfileView{loader: loader}
}

func (v *ProfileView) Load(ctx context.Context, id uint) ProfileState {
	v.mu.Lock()
	v.state.Loading = true
	loading := v.state
	v.mu.Unlock()
	v.listeners.emit(loading)

	profile, err := v.loader.GetProfile(ctx, id).Unwrap()
	if err != nil {
		profile = PlaceholderProfile(id)
	}

	v.mu.Lock()
	v.state = ProfileState{Profile: profile, Err: err}
	done := v.state
	v.mu.Unlock()
	v.listeners.emit(done)
	return done
}

func (v *ProfileView) State() ProfileState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *ProfileView) OnChange(fn func(ProfileState)) func() {
	return v.listeners.add(fn)
}

// AvatarAlert is raised when an avatar upload fails.
const AvatarAlert = "We couldn't update your photo. Please try again."

type AvatarState struct {
	// Preview is what the screen shows: the pending image while uploading,
	// then the stored avatar.
	Preview   string
	Stored    string
	Uploading bool
	Alert     string
}

// AvatarEditor shows a new avatar before its upload finishes and falls back
// to the stored one if the upload fails.
type AvatarEditor struct {
	uploader AvatarUploader
	userID   uint

	mu        sync.Mutex
	state     AvatarState
	listeners listeners[AvatarState]
}

func NewAvatarEditor(uploader AvatarUploader, userID uint, storedURL string) *AvatarEditor {
	return &AvatarEditor{
		uploader: uploader,
		userID:   userID,
		state:    AvatarState{Preview: storedURL, Stored: storedURL},
	}
}

// Pick shows localPreview at once and uploads data.
func (e *AvatarEditor) Pick(ctx context.Context, localPreview string, data []byte) error {
	e.mu.Lock()
	e.state.Preview = localPreview
	e.state.Uploading = true
	e.state.Alert = ""
	pending := e.state
	e.mu.Unlock()
	e.listeners.emit(pending)

	url, err := e.uploader.UploadAvatar(ctx, e.userID, data).Unwrap()

	e.mu.Lock()
	e.state.Uploading = false
	if err != nil {
		e.state.Preview = e.state.Stored
		e.state.Alert = AvatarAlert
	} else {
		e.state.Stored = url
		e.state.Preview = url
	}
	done := e.state
	e.mu.Unlock()
	e.listeners.emit(done)
	return err
}

// DismissAlert clears a raised alert.
func (e *AvatarEditor) DismissAlert() {
	e.mu.Lock()
	e.state.Alert = ""
	s := e.state
	e.mu.Unlock()
	e.listeners.emit(s)
}

func (e *AvatarEditor) State() AvatarState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *AvatarEditor) OnChange(fn func(AvatarState)) func() {
	return e.listeners.add(fn)
}
