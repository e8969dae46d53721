package middleware

import (
	"strings"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const callerKey = "caller"

// Claims are the bearer token claims the API understands.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Auth verifies HS256 bearer tokens and stores the caller in the request locals.
// When issuer is not empty the token must carry it.
func Auth(log *zap.SugaredLogger, secret []byte, issuer string) fiber.Handler {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return unauthorized(c, "missing bearer token")
		}

		claims := &Claims{}
		token, err := parser.ParseWithClaims(raw, claims, keyFunc)
		if err != nil || !token.Valid {
			log.Debugw("rejected bearer token", "error", err, "path", c.Path())
			return unauthorized(c, "invalid bearer token")
		}
		if strings.TrimSpace(claims.Subject) == "" {
			return unauthorized(c, "token has no subject")
		}

		c.Locals(callerKey, entities.Caller{UserID: claims.Subject, Name: claims.Name})
		return c.Next()
	}
}

// CallerFrom returns the authenticated caller of the request.
func CallerFrom(c *fiber.Ctx) (entities.Caller, error) {
	caller, ok := c.Locals(callerKey).(entities.Caller)
	if !ok || caller.UserID == "" {
		return entities.Caller{}, entities.ErrUnauthorized
	}
	return caller, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: dto.ErrorBody{Code: dto.CodeUnauthorized, Message: msg},
	})
}
