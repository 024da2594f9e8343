package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/uniportal-api/internal/gateway"
	"github.com/noah-isme/uniportal-api/internal/models"
	appErrors "github.com/noah-isme/uniportal-api/pkg/errors"
)

type authGateway interface {
	Signin(ctx context.Context, app models.App, req models.SigninRequest) (*gateway.SigninResult, error)
}

type sessionManager interface {
	Create(ctx context.Context) (*Workspace, error)
	Get(ctx context.Context, id string) (*Workspace, error)
	Remove(id string)
}

// AuthConfig defines configuration for portal session tokens.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService signs users in through the backend and issues portal session tokens.
type AuthService struct {
	gateway    authGateway
	workspaces sessionManager
	validator  *validator.Validate
	logger     *zap.Logger
	config     AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(gw authGateway, workspaces sessionManager, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 12 * time.Hour
	}
	return &AuthService{gateway: gw, workspaces: workspaces, validator: validate, logger: logger, config: config}
}

// Signin authenticates against the app's backend namespace, stores the
// backend token in a fresh session and returns a portal token for it.
func (s *AuthService) Signin(ctx context.Context, rawApp string, req models.SigninRequest) (*models.SigninResponse, error) {
	app, ok := models.ParseApp(rawApp)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown portal app")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid sign-in payload")
	}

	result, err := s.gateway.Signin(ctx, app, req)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := ws.Context().SignIn(ctx, result.Token, result.Profile); err != nil {
		s.workspaces.Remove(ws.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}

	token, err := s.generateAccessToken(ws.ID, result.Profile)
	if err != nil {
		s.workspaces.Remove(ws.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	s.logger.Info("user signed in",
		zap.String("app", string(app)),
		zap.String("user_id", result.Profile.ID),
		zap.String("session_id", ws.ID))

	return &models.SigninResponse{
		Token:     token,
		ExpiresIn: int64(s.config.AccessTokenExpiry.Seconds()),
		Profile:   result.Profile,
	}, nil
}

// Signout clears the application context and evicts the workspace.
func (s *AuthService) Signout(ctx context.Context, sessionID string) error {
	ws, err := s.workspaces.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := ws.Context().Clear(ctx); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	s.workspaces.Remove(sessionID)
	s.logger.Info("user signed out", zap.String("session_id", sessionID))
	return nil
}

// ValidateToken parses and validates a portal token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(sessionID string, profile models.Profile) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.JWTClaims{
		SessionID: sessionID,
		UserID:    profile.ID,
		Role:      profile.Role,
		App:       profile.App,
		Email:     profile.Email,
		Name:      profile.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   profile.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}
