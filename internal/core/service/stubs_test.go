package service

import (
	"context"
	"fmt"

	"github.com/etherealapi/identity-platform/internal/core/domain"
	"github.com/etherealapi/identity-platform/internal/core/ports"
)

// In-memory repository stubs shared by the service tests. Each returns
// copies so tests cannot mutate stored state by accident, and each exposes
// error hooks to force specific failure paths.

type stubUserRepo struct {
	users     map[string]*domain.User
	seq       int
	createErr error
	updateErr error
	deleteErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, domain.ErrDuplicateRecord
		}
	}
	r.seq++
	stored := cloneUser(user)
	stored.ID = fmt.Sprintf("user-%d", r.seq)
	r.users[stored.ID] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneUser(user), nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubUserRepo) Update(_ context.Context, id string, patch ports.UserPatch) (*domain.User, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.EmailVerified != nil {
		user.EmailVerified = *patch.EmailVerified
	}
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	return cloneUser(user), nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) (*domain.User, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	delete(r.users, id)
	return user, nil
}

type stubAppRepo struct {
	apps      map[string]*domain.Application
	seq       int
	createErr error
	updateErr error
	deleteErr error
}

func newStubAppRepo() *stubAppRepo {
	return &stubAppRepo{apps: make(map[string]*domain.Application)}
}

func cloneApp(a *domain.Application) *domain.Application {
	clone := *a
	return &clone
}

func (r *stubAppRepo) Create(_ context.Context, app *domain.Application) (*domain.Application, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.apps {
		if existing.Name == app.Name {
			return nil, domain.ErrDuplicateRecord
		}
	}
	r.seq++
	stored := cloneApp(app)
	stored.ID = fmt.Sprintf("app-%d", r.seq)
	r.apps[stored.ID] = stored
	return cloneApp(stored), nil
}

func (r *stubAppRepo) GetByID(_ context.Context, id string) (*domain.Application, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneApp(app), nil
}

func (r *stubAppRepo) GetByName(_ context.Context, name string) (*domain.Application, error) {
	for _, app := range r.apps {
		if app.Name == name {
			return cloneApp(app), nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubAppRepo) List(_ context.Context) ([]*domain.Application, error) {
	apps := make([]*domain.Application, 0, len(r.apps))
	for _, app := range r.apps {
		apps = append(apps, cloneApp(app))
	}
	return apps, nil
}

func (r *stubAppRepo) Update(_ context.Context, id string, patch ports.AppPatch) (*domain.Application, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	app, ok := r.apps[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if patch.Name != nil {
		app.Name = *patch.Name
	}
	if patch.URL != nil {
		app.URL = *patch.URL
	}
	if patch.Email != nil {
		app.Email = *patch.Email
	}
	if patch.EmailVerified != nil {
		app.EmailVerified = *patch.EmailVerified
	}
	if patch.IsActive != nil {
		app.IsActive = *patch.IsActive
	}
	return cloneApp(app), nil
}

func (r *stubAppRepo) Delete(_ context.Context, id string) (*domain.Application, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	app, ok := r.apps[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	delete(r.apps, id)
	return app, nil
}

type stubProjectionRepo struct {
	projections map[string]*domain.UserProjection
	createErr   error
	deleteErr   error
}

func newStubProjectionRepo() *stubProjectionRepo {
	return &stubProjectionRepo{projections: make(map[string]*domain.UserProjection)}
}

func projectionKey(appID, userID string) string {
	return appID + "|" + userID
}

func cloneProjection(p *domain.UserProjection) *domain.UserProjection {
	clone := *p
	return &clone
}

func (r *stubProjectionRepo) Create(_ context.Context, projection *domain.UserProjection) (*domain.UserProjection, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	key := projectionKey(projection.AppID, projection.UserID)
	if _, exists := r.projections[key]; exists {
		return nil, domain.ErrDuplicateRecord
	}
	stored := cloneProjection(projection)
	r.projections[key] = stored
	return cloneProjection(stored), nil
}

func (r *stubProjectionRepo) Get(_ context.Context, appID, userID string) (*domain.UserProjection, error) {
	projection, ok := r.projections[projectionKey(appID, userID)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneProjection(projection), nil
}

func (r *stubProjectionRepo) ListByUserID(_ context.Context, userID string) ([]*domain.UserProjection, error) {
	var out []*domain.UserProjection
	for _, projection := range r.projections {
		if projection.UserID == userID {
			out = append(out, cloneProjection(projection))
		}
	}
	return out, nil
}

func (r *stubProjectionRepo) ListByAppID(_ context.Context, appID string) ([]*domain.UserProjection, error) {
	var out []*domain.UserProjection
	for _, projection := range r.projections {
		if projection.AppID == appID {
			out = append(out, cloneProjection(projection))
		}
	}
	return out, nil
}

func (r *stubProjectionRepo) Update(_ context.Context, appID, userID string, patch ports.ProjectionPatch) (*domain.UserProjection, error) {
	projection, ok := r.projections[projectionKey(appID, userID)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if patch.Alias != nil {
		projection.Alias = *patch.Alias
	}
	if patch.AppData != nil {
		projection.AppData = patch.AppData
	}
	if patch.IsActive != nil {
		projection.IsActive = *patch.IsActive
	}
	return cloneProjection(projection), nil
}

func (r *stubProjectionRepo) Delete(_ context.Context, appID, userID string) (*domain.UserProjection, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	key := projectionKey(appID, userID)
	projection, ok := r.projections[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	delete(r.projections, key)
	return projection, nil
}

type stubSecretRepo struct {
	secrets   map[string]*domain.Secret
	createErr error
	updateErr error
	deleteErr error
}

func newStubSecretRepo() *stubSecretRepo {
	return &stubSecretRepo{secrets: make(map[string]*domain.Secret)}
}

func secretStubKey(externalID string, typ domain.SecretType) string {
	return externalID + "|" + string(typ)
}

func cloneSecret(s *domain.Secret) *domain.Secret {
	clone := *s
	return &clone
}

func (r *stubSecretRepo) Create(_ context.Context, secret *domain.Secret) (*domain.Secret, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	key := secretStubKey(secret.ExternalID, secret.Type)
	if _, exists := r.secrets[key]; exists {
		return nil, domain.ErrDuplicateRecord
	}
	stored := cloneSecret(secret)
	r.secrets[key] = stored
	return cloneSecret(stored), nil
}

func (r *stubSecretRepo) Get(_ context.Context, externalID string, typ domain.SecretType) (*domain.Secret, error) {
	secret, ok := r.secrets[secretStubKey(externalID, typ)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneSecret(secret), nil
}

func (r *stubSecretRepo) Update(_ context.Context, externalID string, typ domain.SecretType, patch ports.SecretPatch) (*domain.Secret, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	secret, ok := r.secrets[secretStubKey(externalID, typ)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if patch.PassHash != nil {
		secret.PassHash = *patch.PassHash
	}
	if patch.Salt != nil {
		secret.Salt = *patch.Salt
	}
	return cloneSecret(secret), nil
}

func (r *stubSecretRepo) Delete(_ context.Context, externalID string, typ domain.SecretType) (*domain.Secret, error) {
	if r.deleteErr != nil {
		return nil, r.deleteErr
	}
	key := secretStubKey(externalID, typ)
	secret, ok := r.secrets[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	delete(r.secrets, key)
	return secret, nil
}

type stubSessionRepo struct {
	sessions   map[string]*domain.Session
	createErr  error
	failDelete map[string]bool
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{
		sessions:   make(map[string]*domain.Session),
		failDelete: make(map[string]bool),
	}
}

func cloneSession(s *domain.Session) *domain.Session {
	clone := *s
	return &clone
}

func (r *stubSessionRepo) Create(_ context.Context, session *domain.Session) (*domain.Session, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	stored := cloneSession(session)
	r.sessions[stored.ID] = stored
	return cloneSession(stored), nil
}

func (r *stubSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneSession(session), nil
}

func (r *stubSessionRepo) ListByUserID(_ context.Context, userID string) ([]*domain.Session, error) {
	var out []*domain.Session
	for _, session := range r.sessions {
		if session.UserID == userID {
			out = append(out, cloneSession(session))
		}
	}
	return out, nil
}

func (r *stubSessionRepo) Delete(_ context.Context, id string) (*domain.Session, error) {
	if r.failDelete[id] {
		return nil, fmt.Errorf("session store unavailable")
	}
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	delete(r.sessions, id)
	return session, nil
}

type stubDeviceRepo struct {
	devices   map[string]*domain.Device
	seq       int
	createErr error
	updateErr error
}

func newStubDeviceRepo() *stubDeviceRepo {
	return &stubDeviceRepo{devices: make(map[string]*domain.Device)}
}

func cloneDevice(d *domain.Device) *domain.Device {
	clone := *d
	return &clone
}

func (r *stubDeviceRepo) Create(_ context.Context, device *domain.Device) (*domain.Device, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	stored := cloneDevice(device)
	stored.ID = fmt.Sprintf("device-%d", r.seq)
	r.devices[stored.ID] = stored
	return cloneDevice(stored), nil
}

func (r *stubDeviceRepo) GetByID(_ context.Context, id string) (*domain.Device, error) {
	device, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return cloneDevice(device), nil
}

func (r *stubDeviceRepo) GetByFingerprint(_ context.Context, userAgent, ip string) (*domain.Device, error) {
	for _, device := range r.devices {
		if device.UserAgent == userAgent && device.IP == ip {
			return cloneDevice(device), nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *stubDeviceRepo) Update(_ context.Context, id string, patch ports.DevicePatch) (*domain.Device, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	device, ok := r.devices[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if patch.SessionID != nil {
		device.SessionID = *patch.SessionID
	}
	return cloneDevice(device), nil
}

type stubAuditSink struct {
	events []ports.AuditEvent
}

func (s *stubAuditSink) Emit(event ports.AuditEvent) {
	s.events = append(s.events, event)
}
