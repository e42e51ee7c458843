package middlewares

import (
	"log"
	"net/http"
	"os"
	"strings"

	"stagelink/src/db"
	"stagelink/src/models"
	"stagelink/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// NewJWTKey replaces the signing key. Used by tests to inject a secret.
func NewJWTKey(key []byte) {
	jwtKey = key
}

func JWTKey() []byte {
	return jwtKey
}

// AuthMiddleware resolves the bearer token subject to a profile row and
// stores the profile's identity on the context. The role always comes from
// the database, never from the token claims.
func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	db := db.GetDb()
	var profile models.Profile
	if err := db.
		Model(&models.Profile{}).
		Where(&models.Profile{UserID: claims.Subject}).
		First(&profile).
		Error; err != nil {
		log.Printf("No profile for subject [%s]: %s\n", claims.Subject, err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("user_id", profile.UserID)
	ctx.Set("profile_id", profile.ID.String())
	ctx.Set("email", profile.Email)
	ctx.Set("role", string(profile.Role))
}

// RequireAdmin gates admin endpoints on the role resolved by AuthMiddleware.
func RequireAdmin(ctx *gin.Context) {
	if ctx.GetString("role") != string(types.ROLE_ADMIN) {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
}

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Next()
}
