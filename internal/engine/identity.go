package engine

import "github.com/roach88/shelfswap/internal/domain"

// Register creates a user and makes it the session user.
//
// Fails with CodeDuplicateEmail if any user already has email (exact,
// case-sensitive match) and with CodeInvalidRole for an unknown role.
func (e *Engine) Register(name, email, secret, phone string, role domain.Role) (domain.User, error) {
	const op = "register"

	if !role.Valid() {
		return domain.User{}, newError(op, ErrInvalidRole)
	}
	if _, ok := e.userByEmail(email); ok {
		return domain.User{}, newError(op, ErrDuplicateEmail)
	}

	u := domain.User{
		ID:     e.ids.Generate(),
		Name:   name,
		Email:  email,
		Secret: secret,
		Phone:  phone,
		Role:   role,
	}
	e.state.Users = append(e.state.Users, u)
	e.setSession(u)
	e.commit(op)

	e.logger.Info("user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Login makes the user matching both email and secret the session user.
//
// On failure the session is untouched and the error does not say whether
// the email exists.
func (e *Engine) Login(email, secret string) (domain.User, error) {
	const op = "login"

	u, ok := e.userByEmail(email)
	if !ok || u.Secret != secret {
		return domain.User{}, newError(op, ErrInvalidCredentials)
	}

	e.setSession(u)
	e.commit(op)

	e.logger.Info("user logged in", "user_id", u.ID)
	return u, nil
}

// Logout clears the session. It always succeeds.
func (e *Engine) Logout() {
	e.state.Session = nil
	e.commit("logout")
}

// CurrentUser returns the session user.
func (e *Engine) CurrentUser() (domain.User, bool) {
	if e.state.Session == nil {
		return domain.User{}, false
	}
	return *e.state.Session, true
}

// User returns the registered user with id.
func (e *Engine) User(id string) (domain.User, bool) {
	for _, u := range e.state.Users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

// Users returns all registered users in registration order.
func (e *Engine) Users() []domain.User {
	return append([]domain.User{}, e.state.Users...)
}

func (e *Engine) userByEmail(email string) (domain.User, bool) {
	for _, u := range e.state.Users {
		if u.Email == email {
			return u, true
		}
	}
	return domain.User{}, false
}

func (e *Engine) setSession(u domain.User) {
	e.state.Session = &u
}

// requireSession returns the session user or a CodeUnauthenticated error.
func (e *Engine) requireSession(op string) (domain.User, error) {
	u, ok := e.CurrentUser()
	if !ok {
		return domain.User{}, newError(op, ErrUnauthenticated)
	}
	return u, nil
}
