package handler

import (
	"net/http"

	"anoa.com/reportdesk/internal/dto"
	"anoa.com/reportdesk/internal/middleware"
	"anoa.com/reportdesk/internal/service"
	"anoa.com/reportdesk/internal/session"
	"anoa.com/reportdesk/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	sessions    *session.Manager
}

func NewAuthHandler(authService service.AuthService, userService service.UserService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		sessions:    sessions,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var input dto.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	res, err := h.authService.Signup(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.sessions.Write(c.Writer, c.Request, res.Token); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var input dto.SigninInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	res, err := h.authService.Signin(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.sessions.Write(c.Writer, c.Request, res.Token); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Signout(c *gin.Context) {
	if err := h.sessions.Clear(c.Writer, c.Request); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var input dto.UpdateProfileInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	var upload *service.UploadFile
	if fileHeader, err := c.FormFile("file"); err == nil && fileHeader != nil {
		u, file, err := openUpload(fileHeader)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
			return
		}
		defer file.Close()
		upload = u
	}

	res, err := h.userService.UpdateProfile(c.Request.Context(), user.ID.String(), input, upload)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	res, err := h.userService.List(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) DeleteProfile(c *gin.Context) {
	var input dto.DeleteProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	if err := h.userService.Delete(c.Request.Context(), input.ID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
