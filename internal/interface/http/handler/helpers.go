package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ignatzorin/offer-engine/internal/http/middleware"
	"github.com/ignatzorin/offer-engine/internal/interface/http/response"
)

func getUserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, errors.New("user_id не найден в контексте")
	}

	userID, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("некорректный формат user_id")
	}
	return userID, nil
}

// pathID читает UUID из параметра пути. Формат уже проверен UUIDValidator,
// поэтому ошибка здесь означает, что маршрут собран без него.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
		return uuid.Nil, false
	}
	return id, true
}

// actor возвращает пользователя запроса или отвечает 401.
func actor(c *gin.Context) (uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, false
	}
	return userID, true
}
