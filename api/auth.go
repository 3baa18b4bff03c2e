package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend_smartiv/services"
)

// AuthAPI регистрация, вход и профиль текущего пользователя
type AuthAPI struct {
	auth   *services.AuthService
	logger *zap.Logger
}

// NewAuthAPI создает новый экземпляр AuthAPI
func NewAuthAPI(auth *services.AuthService, logger *zap.Logger) *AuthAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthAPI{auth: auth, logger: logger.Named("api")}
}

// Register создает учетную запись рекламодателя
func (aa *AuthAPI) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, err := aa.auth.Register(c.Request.Context(), input)
	if err != nil {
		respondError(c, aa.logger, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

// Login выдает токен доступа
func (aa *AuthAPI) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := aa.auth.Login(c.Request.Context(), input)
	if err != nil {
		respondError(c, aa.logger, err)
		return
	}
	respondData(c, http.StatusOK, result)
}

// Me профиль текущего пользователя
func (aa *AuthAPI) Me(c *gin.Context) {
	actor := actorFrom(c)
	user, err := aa.auth.GetUser(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, aa.logger, err)
		return
	}
	respondData(c, http.StatusOK, user)
}
