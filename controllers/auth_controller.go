package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/middleware"
	"github.com/cppla/topicbbs/services"
	"github.com/cppla/topicbbs/utils"
)

// AuthController handles registration, login and session endpoints.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates an AuthController.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Register creates an account and returns its id.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, apperrors.Validation("invalid request payload"))
		return
	}

	user, err := a.auth.Register(ctx.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 0, "user registered successfully", gin.H{"user_id": user.ID})
}

// Login exchanges email and password for a token, returned in the body and the auth-token header.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.RespondError(ctx, apperrors.Validation("invalid request payload"))
		return
	}

	res, err := a.auth.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	ctx.Header(middleware.TokenHeader, res.Token)
	utils.Respond(ctx, http.StatusOK, 0, "login successful", res)
}

// Logout invalidates the presented token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	claims, _ := middleware.Claims(ctx)
	if err := a.auth.Logout(ctx.Request.Context(), claims); err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.auth.Me(ctx.Request.Context(), middleware.UserID(ctx))
	if err != nil {
		utils.RespondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"roles":      user.RoleList(),
		"created_at": user.CreatedAt,
	})
}
