package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
)

// Claims represents the authorization claims transmitted via a JWT.
// Auth proper lives in the main application; this API only verifies a shared
// service credential and hands out scoped tokens for reporting clients.
type Claims struct {
	jwt.StandardClaims
	Client string `json:"client,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "serviceToken",
		Claims:        new(Claims),
	}
}

type tokenRequest struct {
	Client string `json:"client" validate:"required"`
	APIKey string `json:"api_key" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func registerAuthAPI(g *echo.Group, conf *core.Config) {
	g.POST("/auth/token", func(ctx echo.Context) error {
		var req tokenRequest
		if err := ctx.Bind(&req); err != nil {
			return errAuthenticationFailed
		}
		req.Client = core.CleanString(req.Client)
		if err := core.Validate.Struct(&req); err != nil {
			return err
		}
		if req.APIKey != conf.SecretKey {
			return errAuthenticationFailed
		}

		now := time.Now()
		claims := &Claims{
			StandardClaims: jwt.StandardClaims{
				Issuer:    conf.AppName,
				Subject:   req.Client,
				ExpiresAt: now.Add(conf.JWTExpirationDelta).Unix(),
				IssuedAt:  now.Unix(),
			},
			Client: req.Client,
		}
		token, err := generateToken(claims, conf)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, tokenResponse{Token: token})
	})
}

// generateToken generates a signed JWT token string representing the Claims.
func generateToken(claims *Claims, conf *core.Config) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errTokenSigningFailed
	}
	return ss, nil
}
