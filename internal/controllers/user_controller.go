package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"accounts-api/internal/models"
	"accounts-api/internal/repository"
	"accounts-api/internal/service"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user id",
		})
		return 0, false
	}
	return id, true
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, repository.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Something went wrong",
		})
	}
}

// Create handles POST /api/v1/users
func (uc *UserController) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := uc.userService.Create(c.Request.Context(), &req)
	if err != nil {
		writeUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// List handles GET /api/v1/users
func (uc *UserController) List(c *gin.Context) {
	users, err := uc.userService.List(c.Request.Context())
	if err != nil {
		writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
	})
}

// Show handles GET /api/v1/users/:id
func (uc *UserController) Show(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := uc.userService.Show(c.Request.Context(), id)
	if err != nil {
		writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Update handles PUT /api/v1/users/:id
func (uc *UserController) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := uc.userService.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdatePartial handles PATCH /api/v1/users/:id
func (uc *UserController) UpdatePartial(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.PatchUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user, err := uc.userService.UpdatePartial(c.Request.Context(), id, &req)
	if err != nil {
		writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/:id
func (uc *UserController) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := uc.userService.Delete(c.Request.Context(), id); err != nil {
		writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted",
	})
}
