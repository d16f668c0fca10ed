package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wrenlab/folio-backend/api/common"
	"github.com/wrenlab/folio-backend/internal/auth"
)

// LoginHandler 登录处理器
type LoginHandler struct {
	loginService *auth.LoginService
}

// NewLoginHandler 创建登录处理器
func NewLoginHandler(loginService *auth.LoginService) *LoginHandler {
	return &LoginHandler{
		loginService: loginService,
	}
}

type userAuthRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken       string `json:"access_token"`
	AccessTokenExpiry int64  `json:"access_token_expiry"`
	Username          string `json:"username"`
	Role              string `json:"role"`
}

// LoginHandlerFunc user login
func (h *LoginHandler) LoginHandlerFunc(context *gin.Context) {
	if h.loginService == nil {
		common.RespondError(context, http.StatusInternalServerError, "Login service not initialized")
		return
	}

	var req userAuthRequestBody
	if err := context.ShouldBindJSON(&req); err != nil {
		common.RespondError(context, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.loginService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			common.RespondError(context, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		common.RespondError(context, http.StatusInternalServerError, "Internal server error")
		return
	}

	common.RespondSuccessMessage(context, "Login successful", loginResponse{
		AccessToken:       result.Token,
		AccessTokenExpiry: result.ExpiresAt.Unix(),
		Username:          result.Username,
		Role:              result.Role,
	})
}
