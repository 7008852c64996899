package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/locodavid123/parcial1/internal/model"
	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/config"
	"github.com/locodavid123/parcial1/pkg/jwtutil"
	"github.com/locodavid123/parcial1/pkg/logger"
	"github.com/locodavid123/parcial1/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxFacesPerUser   = 5
)

// Session is returned by every successful sign in
type Session struct {
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expires_in"`
	User      *model.User   `json:"user"`
	Client    *model.Client `json:"client,omitempty"`
}

// Profile describes the signed in user
type Profile struct {
	User         *model.User   `json:"user"`
	Client       *model.Client `json:"client,omitempty"`
	FaceEnrolled bool          `json:"face_enrolled"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// AuthService handles sign in, sign up and password recovery
type AuthService struct {
	store   store.Store
	jwt     *jwtutil.JWTUtil
	mailer  Mailer
	cfg     config.AuthConfig
	baseURL string

	hashCost int
	now      func() time.Time
}

func NewAuthService(s store.Store, jwt *jwtutil.JWTUtil, mailer Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		store:    s,
		jwt:      jwt,
		mailer:   mailer,
		cfg:      cfg.Auth,
		baseURL:  strings.TrimRight(cfg.Server.PublicBaseURL, "/"),
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// HashPassword hashes a password with bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	return hashPassword(password, s.hashCost)
}

func hashPassword(password string, cost int) (string, error) {
	if len(password) < minPasswordLength {
		return "", invalid("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies email and password. Accounts created before hashing was
// introduced still hold the plain password; it is accepted once and replaced
// by a bcrypt hash.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	log := logger.FromContext(ctx)
	prometheus.RecordAuthAttempt("password")

	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAuthError("unknown_email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	legacy, ok := checkPassword(user.PasswordHash, password)
	if !ok {
		prometheus.RecordAuthError("wrong_password")
		log.Warn("Failed login attempt", zap.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	role, roleErr := model.ParseRole(string(user.Role))
	if legacy || (roleErr == nil && role != user.Role) {
		if legacy {
			hash, err := s.HashPassword(password)
			if err != nil {
				return nil, err
			}
			user.PasswordHash = hash
		}
		if roleErr == nil {
			user.Role = role
		}
		if err := s.store.Users().Update(ctx, user); err != nil {
			log.Warn("Failed to upgrade legacy account", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			log.Info("Legacy account upgraded", zap.String("user_id", user.ID))
		}
	}

	return s.newSession(ctx, user)
}

// checkPassword reports whether password matches and whether the stored value was a legacy plain text password
func checkPassword(stored, password string) (legacy bool, ok bool) {
	if strings.HasPrefix(stored, "$2") {
		return false, bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	if stored == "" {
		return false, false
	}
	return true, subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func (s *AuthService) newSession(ctx context.Context, user *model.User) (*Session, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session := &Session{
		Token:     token,
		ExpiresIn: int64(s.jwt.TTL().Seconds()),
		User:      user,
	}
	if user.Role == model.RoleClient {
		c, err := s.store.Clients().GetByUserID(ctx, user.ID)
		if err == nil {
			session.Client = c
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return session, nil
}

// Register signs up a customer: a client-role user plus its linked client
// record. A client record with the same email and no account is adopted.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	prometheus.RecordAuthAttempt("register")

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" {
		return nil, invalid("name and email are required")
	}
	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         model.RoleClient,
	}
	err = runAtomically(ctx, s.store, func(ctx context.Context, tx store.Repositories, undo *undoLog) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		undo.Add("delete user "+user.ID, func(ctx context.Context) error {
			return tx.Users().Delete(ctx, user.ID)
		})
		_, err := linkClient(ctx, tx, user, undo)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			prometheus.RecordAuthError("duplicate_email")
			return nil, fmt.Errorf("%w: email %s is already registered", store.ErrConflict, in.Email)
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("User registered", zap.String("user_id", user.ID))
	return s.newSession(ctx, user)
}

// linkClient returns the client record of a client-role user, adopting an
// unlinked record with the same email or creating a new one
func linkClient(ctx context.Context, tx store.Repositories, user *model.User, undo *undoLog) (*model.Client, error) {
	c, err := tx.Clients().GetByUserID(ctx, user.ID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if user.Email != "" {
		c, err = tx.Clients().GetByEmail(ctx, user.Email)
		switch {
		case err == nil && c.UserID == nil:
			previous := *c
			c.UserID = &user.ID
			if c.Phone == "" {
				c.Phone = user.Phone
			}
			if err := tx.Clients().Update(ctx, c); err != nil {
				return nil, err
			}
			undo.Add("unlink client "+c.ID, func(ctx context.Context) error {
				return tx.Clients().Update(ctx, &previous)
			})
			return c, nil
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	c = &model.Client{Name: user.Name, Email: user.Email, Phone: user.Phone, UserID: &user.ID}
	if err := tx.Clients().Create(ctx, c); err != nil {
		return nil, err
	}
	undo.Add("delete client "+c.ID, func(ctx context.Context) error {
		return tx.Clients().Delete(ctx, c.ID)
	})
	return c, nil
}

// FaceLogin signs in the user whose enrolled descriptor is closest to the
// sample, provided the distance is under the match threshold. A non-empty
// email restricts the match to that account.
func (s *AuthService) FaceLogin(ctx context.Context, email string, descriptor []float64) (*Session, error) {
	prometheus.RecordAuthAttempt("face")

	if len(descriptor) != model.FaceDescriptorSize {
		return nil, invalid("face descriptor must have %d values", model.FaceDescriptorSize)
	}

	users, err := s.store.Users().ListWithFaceDescriptors(ctx)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	var (
		best     *model.User
		bestDist = s.cfg.FaceMatchThreshold
	)
	for i := range users {
		if email != "" && users[i].Email != email {
			continue
		}
		dist, ok := users[i].BestFaceDistance(descriptor)
		if ok && dist < bestDist {
			best, bestDist = &users[i], dist
		}
	}
	if best == nil {
		prometheus.RecordAuthError("face_not_recognized")
		return nil, ErrFaceNotRecognized
	}

	logger.FromContext(ctx).Info("Face login matched",
		zap.String("user_id", best.ID),
		zap.Float64("distance", bestDist))
	return s.newSession(ctx, best)
}

// EnrollFace stores a descriptor for the caller, keeping the most recent ones
func (s *AuthService) EnrollFace(ctx context.Context, actor Actor, descriptor []float64) error {
	if len(descriptor) != model.FaceDescriptorSize {
		return invalid("face descriptor must have %d values", model.FaceDescriptorSize)
	}
	user, err := s.store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	user.FaceDescriptors = append(user.FaceDescriptors, descriptor)
	if n := len(user.FaceDescriptors); n > maxFacesPerUser {
		user.FaceDescriptors = user.FaceDescriptors[n-maxFacesPerUser:]
	}
	return s.store.Users().Update(ctx, user)
}

// ForgotPassword emails a one-time reset link. Unknown emails and mail
// failures succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	log := logger.FromContext(ctx)

	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)
	expires := s.now().Add(s.cfg.ResetTokenTTL)

	user.PasswordResetToken = hashToken(token)
	user.PasswordResetExpires = &expires
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}

	link := s.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	body := fmt.Sprintf("Hola %s,\n\nPara restablecer tu contraseña abre este enlace:\n%s\n\nEl enlace vence en %d minutos.\n",
		user.Name, link, int(s.cfg.ResetTokenTTL.Minutes()))
	// A mail failure answers like an unknown email so accounts cannot be enumerated
	if err := s.mailer.Send(ctx, user.Email, "Restablecer contraseña", body); err != nil {
		log.Error("Failed to send reset email", zap.String("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword sets a new password using a token from ForgotPassword
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	user, err := s.store.Users().GetByResetToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}
	if user.PasswordResetExpires == nil || s.now().After(*user.PasswordResetExpires) {
		return ErrInvalidResetToken
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.ClearPasswordReset()
	if err := s.store.Users().Update(ctx, user); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Password reset", zap.String("user_id", user.ID))
	return nil
}

// Me returns the profile of the caller
func (s *AuthService) Me(ctx context.Context, actor Actor) (*Profile, error) {
	user, err := s.store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: user, FaceEnrolled: user.HasFace()}
	if c, err := s.store.Clients().GetByUserID(ctx, user.ID); err == nil {
		profile.Client = c
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return profile, nil
}

func hashToken(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
