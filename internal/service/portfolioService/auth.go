package portfolioService

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/argon2"

	"github.com/ivgord/stockfolio/data/repository"
	"github.com/ivgord/stockfolio/internal/model"
	"github.com/ivgord/stockfolio/internal/policy"
	"github.com/ivgord/stockfolio/internal/service"
	"github.com/ivgord/stockfolio/utils"
)

const (
	saltLen      = 32
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

func hashPassword(password string, salt []byte) string {
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return hex.EncodeToString(key)
}

// Register creates an account. The username is normalized, the password is
// checked against the strength policy and stored as argon2id(salt, password)
// with a per-user random salt.
func (s *PortfolioService) Register(ctx context.Context, username, password string) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.Register"

	slog.Debug("Register start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		slog.Debug("Register finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	}()

	username, err = policy.ValidateUsername(username)
	if err != nil {
		return 0, err
	}

	if err = policy.ValidatePassword(password); err != nil {
		return 0, err
	}

	salt := make([]byte, saltLen)
	if _, err = rand.Read(salt); err != nil {
		return 0, fmt.Errorf("generate salt: %w", err)
	}

	userID, err = s.repo.InsertUser(ctx, username, hashPassword(password, salt), hex.EncodeToString(salt))
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return 0, service.ErrUsernameTaken
		}
		slog.Error("got error from repo.InsertUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	return userID, nil
}

// Login verifies credentials. Unknown user and wrong password both come back
// as ErrInvalidCredentials so usernames cannot be probed.
func (s *PortfolioService) Login(ctx context.Context, username, password string) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.Login"

	slog.Debug("Login start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		slog.Debug("Login finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	}()

	username, err = policy.ValidateUsername(username)
	if err != nil {
		return 0, service.ErrInvalidCredentials
	}

	creds, err := s.repo.GetCredentials(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, service.ErrInvalidCredentials
		}
		slog.Error("got error from repo.GetCredentials", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	salt, err := hex.DecodeString(creds.Salt)
	if err != nil {
		slog.Error("stored salt is not valid hex", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, service.ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(hashPassword(password, salt)), []byte(creds.PasswordHash)) != 1 {
		return 0, service.ErrInvalidCredentials
	}

	return creds.UserID, nil
}

// Account returns the stored profile of a logged-in user.
func (s *PortfolioService) Account(ctx context.Context, userID int64) (model.User, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.Account"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, service.ErrNotFound
		}
		slog.Error("got error from repo.GetUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.User{}, err
	}

	return user, nil
}
