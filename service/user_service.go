package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"optimal-bank-api/geo"
	"optimal-bank-api/logger"
	"optimal-bank-api/metrics"
	"optimal-bank-api/model"
	"optimal-bank-api/notification"
	"optimal-bank-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	loginAttemptLimit = 5
	loginLockDuration = 5 * time.Minute

	// A successful login more than this far from the previous one, within
	// this window, is treated as suspicious travel.
	fraudDistanceKm   = 1000.0
	fraudLoginWindow  = 60 * time.Minute
	fraudLockDuration = 5 * time.Minute
)

// UserService handles signup, login and the login security state machine.
type UserService struct {
	userRepo repository.IUserRepository
	auth     *AuthService
	locator  geo.Locator
	notifier notification.Notifier
}

func NewUserService(userRepo repository.IUserRepository, auth *AuthService, locator geo.Locator, notifier notification.Notifier) *UserService {
	return &UserService{
		userRepo: userRepo,
		auth:     auth,
		locator:  locator,
		notifier: notifier,
	}
}

// Signup registers a new user. The caller's IP is geolocated and seeds the
// last-login record, so the fraud check has a reference point from day one.
func (s *UserService) Signup(ctx context.Context, req model.RegisterRequest, ip string) (*model.User, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"username": req.Username,
		"email":    req.Email,
	})
	log.Info("Processing signup request")

	if _, err := s.userRepo.GetUserByUsername(req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if _, err := s.userRepo.GetUserByEmail(req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hashedPassword, err := s.auth.HashCredential(req.Password)
	if err != nil {
		return nil, err
	}

	loc := s.locator.Lookup(ctx, ip)
	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashedPassword,
		Role:     model.RoleUser,
		LastLogin: &model.LoginRecord{
			IP:      ip,
			Lat:     loc.Lat,
			Lng:     loc.Lng,
			City:    loc.City,
			Region:  loc.Region,
			Country: loc.Country,
			At:      time.Now(),
		},
	}

	if err := s.userRepo.CreateUser(user); err != nil {
		log.WithError(err).Error("Failed to create user")
		return nil, err
	}
	return user, nil
}

// Login verifies the password behind the login security state machine, runs
// the travel-based fraud check on success and returns a signed token.
//
// Lockout rules: a wrong password increments the failed-attempt counter; the
// fifth consecutive failure locks logins for five minutes, resets the counter
// and emails the user. While the lock is active every attempt is rejected
// without touching the counter. Every state change is persisted with a
// versioned write before this method returns.
func (s *UserService) Login(ctx context.Context, req model.LoginRequest, ip string) (*model.User, string, error) {
	log := logger.Log.WithField("email", req.Email)
	log.Info("Processing login request")

	user, err := s.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	now := time.Now()
	if user.LoginLockedUntil != nil && now.Before(*user.LoginLockedUntil) {
		log.WithField("locked_until", user.LoginLockedUntil).Warn("Login attempt on locked account")
		return nil, "", &LockedError{Until: *user.LoginLockedUntil}
	}

	if !s.auth.VerifyCredential(req.Password, user.Password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, "", s.recordFailedLogin(ctx, user, now)
	}

	user.FailedLoginAttempts = 0
	user.LoginLockedUntil = nil

	loc := s.locator.Lookup(ctx, ip)
	current := &model.LoginRecord{
		IP:      ip,
		Lat:     loc.Lat,
		Lng:     loc.Lng,
		City:    loc.City,
		Region:  loc.Region,
		Country: loc.Country,
		At:      now,
	}

	s.checkSuspiciousTravel(ctx, user, current, now)

	// The current login record always wins, fraud-flagged or not.
	user.LastLogin = current
	if err := s.userRepo.UpdateLoginSecurity(user); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, "", ErrConflict
		}
		return nil, "", err
	}

	token, err := s.auth.GenerateJWT(user)
	if err != nil {
		return nil, "", err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.WithField("user_id", user.ID).Info("Login successful")
	return user, token, nil
}

// recordFailedLogin advances the failure counter and, on the fifth
// consecutive miss, transitions the user into the locked state.
func (s *UserService) recordFailedLogin(ctx context.Context, user *model.User, now time.Time) error {
	log := logger.Log.WithField("user_id", user.ID)

	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= loginAttemptLimit {
		until := now.Add(loginLockDuration)
		user.LoginLockedUntil = &until
		user.FailedLoginAttempts = 0

		if err := s.userRepo.UpdateLoginSecurity(user); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				return ErrConflict
			}
			return err
		}

		metrics.Lockouts.WithLabelValues("login").Inc()
		log.WithField("locked_until", until).Warn("User locked out after repeated login failures")
		notify(ctx, s.notifier, notification.Recipient{Email: user.Email, Name: user.Username},
			"Failed login attempts",
			"<p>Too many failed login attempts. Your account is temporarily locked for 5 minutes.</p>")

		return &LockedError{Until: until}
	}

	if err := s.userRepo.UpdateLoginSecurity(user); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return ErrConflict
		}
		return err
	}

	log.WithField("failed_attempts", user.FailedLoginAttempts).Warn("Incorrect password")
	return ErrInvalidCredentials
}

// checkSuspiciousTravel flags logins that are implausibly far from the
// previous one in too short a window. A flag locks the NEXT login attempt
// for five minutes and alerts the user; the current login still completes.
// Without a previous login there is nothing to compare against.
func (s *UserService) checkSuspiciousTravel(ctx context.Context, user *model.User, current *model.LoginRecord, now time.Time) {
	prev := user.LastLogin
	if prev == nil {
		return
	}

	distance := geo.Kilometers(prev.Lat, prev.Lng, current.Lat, current.Lng)
	elapsed := now.Sub(prev.At)
	if distance <= fraudDistanceKm || elapsed >= fraudLoginWindow {
		return
	}

	until := now.Add(fraudLockDuration)
	user.LoginLockedUntil = &until

	metrics.Lockouts.WithLabelValues("fraud").Inc()
	logger.Log.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"distance_km": distance,
		"elapsed":     elapsed.String(),
	}).Warn("Suspicious travel between logins detected")

	notify(ctx, s.notifier, notification.Recipient{Email: user.Email, Name: user.Username},
		"Unusual login alert",
		fmt.Sprintf("<p><strong>Unusual login activity</strong></p>"+
			"<p>We noticed a login to your Optimal Bank account from a new location.</p>"+
			"<p><strong>Location:</strong> %s, %s, %s</p>"+
			"<p>If you did not authorize this activity, please reset your password immediately.</p>",
			current.City, current.Region, current.Country))
}

// GetAllUsers retrieves all users. For admin use only.
func (s *UserService) GetAllUsers() ([]*model.User, error) {
	return s.userRepo.GetAllUsers()
}

// UpdateUserRole validates the role and calls the repository to update it.
func (s *UserService) UpdateUserRole(userID int, newRole model.Role) error {
	if newRole != model.RoleAdmin && newRole != model.RoleUser {
		return errors.New("invalid role specified")
	}
	return s.userRepo.UpdateUserRole(userID, string(newRole))
}
