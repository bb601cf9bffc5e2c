package impl

import (
	"context"
	"time"

	"staan/internal/domain/entity"
	"staan/internal/domain/repository"
	"staan/internal/domain/service"

	"github.com/google/uuid"
)

// fakeTxManager runs the transaction function directly against the
// in-memory repositories, acting as its own repository factory.
type fakeTxManager struct {
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	execErr  error
}

func newFakeTxManager() *fakeTxManager {
	return &fakeTxManager{
		users:    newFakeUserRepo(),
		sessions: newFakeSessionRepo(),
	}
}

func (m *fakeTxManager) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	if m.execErr != nil {
		return m.execErr
	}

	return fn(m)
}

func (m *fakeTxManager) NewUserRepository() repository.UserRepository { return m.users }

func (m *fakeTxManager) NewSessionRepository() repository.SessionRepository { return m.sessions }

type fakeUserRepo struct {
	users     map[uuid.UUID]*entity.User
	createErr error

	// connWrites records every UpdateConnection call.
	connWrites []entity.PlatformConnection
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) add(user *entity.User) *entity.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user

	return user
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return user, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	if r.createErr != nil {
		return r.createErr
	}

	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user

	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}

	user.UpdatedAt = time.Now()
	r.users[user.ID] = user

	return nil
}

func (r *fakeUserRepo) UpdateConnection(_ context.Context, userID uuid.UUID, conn *entity.PlatformConnection) error {
	user, ok := r.users[userID]
	if !ok {
		return repository.ErrUserNotFound
	}

	stored := *conn
	user.Connection = &stored
	r.connWrites = append(r.connWrites, stored)

	return nil
}

type fakeSessionRepo struct {
	sessions  map[uuid.UUID]*entity.Session
	createErr error

	deleted            []uuid.UUID
	deleteExpiredCalls int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.Session)}
}

func (r *fakeSessionRepo) add(session *entity.Session) *entity.Session {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	r.sessions[session.ID] = session

	return session
}

func (r *fakeSessionRepo) Create(_ context.Context, session *entity.Session) error {
	if r.createErr != nil {
		return r.createErr
	}

	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	r.sessions[session.ID] = session

	return nil
}

func (r *fakeSessionRepo) FindActive(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	session, ok := r.sessions[id]
	if !ok || session.Expired(time.Now()) {
		return nil, repository.ErrSessionNotFound
	}

	return session, nil
}

func (r *fakeSessionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.sessions, id)
	r.deleted = append(r.deleted, id)

	return nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context) error {
	r.deleteExpiredCalls++
	for id, session := range r.sessions {
		if session.Expired(time.Now()) {
			delete(r.sessions, id)
		}
	}

	return nil
}

// fakeHasher produces deterministic, reversible "hashes" so tests can
// assert what was stored.
type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}

	return "hashed:" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

type fakeTokenService struct {
	issueErr error
}

func (s *fakeTokenService) Issue(userID uuid.UUID) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}

	return "token-for-" + userID.String(), nil
}

func (s *fakeTokenService) Verify(string) (*service.Claims, error) { return nil, nil }

func (s *fakeTokenService) TokenTTL() time.Duration { return time.Hour }

type fakeOAuthService struct {
	authURL  string
	exchange func(code string) (*service.TokenPair, error)
	refresh  func(refreshToken string) (*service.TokenPair, error)
}

func (s *fakeOAuthService) AuthorizationURL() string { return s.authURL }

func (s *fakeOAuthService) Exchange(_ context.Context, code string) (*service.TokenPair, error) {
	return s.exchange(code)
}

func (s *fakeOAuthService) Refresh(_ context.Context, refreshToken string) (*service.TokenPair, error) {
	return s.refresh(refreshToken)
}

func (s *fakeOAuthService) Provider() entity.Platform { return entity.PlatformSpotify }

type fakeSpotifyAPI struct {
	profile func(accessToken string) (*service.SpotifyProfile, error)
}

func (a *fakeSpotifyAPI) Profile(_ context.Context, accessToken string) (*service.SpotifyProfile, error) {
	return a.profile(accessToken)
}

type fakeIdentityVerifier struct {
	verify func(idToken string) (*service.FederatedIdentity, error)
}

func (v *fakeIdentityVerifier) VerifyIDToken(_ context.Context, idToken string) (*service.FederatedIdentity, error) {
	return v.verify(idToken)
}

func (v *fakeIdentityVerifier) Provider() entity.Platform { return entity.PlatformGoogle }

type fakeQRCodeService struct {
	encode func(data string) ([]byte, error)
}

func (s *fakeQRCodeService) EncodePNG(data string) ([]byte, error) {
	return s.encode(data)
}
