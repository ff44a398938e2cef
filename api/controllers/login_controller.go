package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"Yatube/api/auth"
	"Yatube/api/models"
	"Yatube/api/security"
	"Yatube/api/utils/formaterror"

	"github.com/gin-gonic/gin"
)

// Login authenticates with email and password and returns a JWT.
func (server *Server) Login(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}

	user := models.User{}
	if err := json.Unmarshal(body, &user); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	user.Prepare()
	errorMessages := user.Validate("login")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	userData, err := server.SignIn(user.Email, user.Password)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  formattedError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": userData,
	})
}

func (server *Server) SignIn(email, password string) (map[string]interface{}, error) {
	userData := make(map[string]interface{})

	user := models.User{}
	normalizedEmail := strings.ToLower(email)
	err := server.DB.Model(models.User{}).Where("lower(email) = ?", normalizedEmail).Take(&user).Error
	if err != nil {
		return nil, err
	}

	if err := security.VerifyPassword(user.Password, password); err != nil {
		return nil, err
	}

	token, err := auth.CreateToken(user.ID)
	if err != nil {
		return nil, err
	}

	userData["token"] = token
	userData["id"] = user.ID
	userData["username"] = user.Username
	userData["email"] = user.Email

	return userData, nil
}
