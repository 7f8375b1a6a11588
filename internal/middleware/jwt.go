package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/coursetrack-api/internal/service"
	"github.com/noah-isme/coursetrack-api/internal/utils"
)

// Locals keys populated by JWTProtected.
const (
	LocalUserID        = "user_id"
	LocalRole          = "user_role"
	LocalFacilitatorID = "facilitator_id"
	LocalManagerID     = "manager_id"
)

// JWTProtected returns a middleware that validates JWT bearer tokens.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, err := claimUint(claims, "sub")
		if err != nil || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token subject")
		}
		c.Locals(LocalUserID, userID)

		if role, ok := claims["role"].(string); ok {
			c.Locals(LocalRole, strings.ToLower(strings.TrimSpace(role)))
		}
		if id, err := claimUint(claims, "facilitator_id"); err == nil && id != 0 {
			c.Locals(LocalFacilitatorID, id)
		}
		if id, err := claimUint(claims, "manager_id"); err == nil && id != 0 {
			c.Locals(LocalManagerID, id)
		}

		return c.Next()
	}
}

// ActorFromContext rebuilds the authenticated caller from request locals.
func ActorFromContext(c *fiber.Ctx) (service.Actor, bool) {
	userID, ok := c.Locals(LocalUserID).(uint)
	if !ok || userID == 0 {
		return service.Actor{}, false
	}

	actor := service.Actor{UserID: userID}
	if role, ok := c.Locals(LocalRole).(string); ok {
		actor.Role = role
	}
	if id, ok := c.Locals(LocalFacilitatorID).(uint); ok {
		actor.FacilitatorID = &id
	}
	if id, ok := c.Locals(LocalManagerID).(uint); ok {
		actor.ManagerID = &id
	}
	return actor, true
}

func claimUint(claims jwt.MapClaims, key string) (uint, error) {
	value, ok := claims[key]
	if !ok {
		return 0, fmt.Errorf("claim %s missing", key)
	}

	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid %s", key)
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, fmt.Errorf("unsupported %s type", key)
	}
}
