package promotions

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func getPromotionID(c *fiber.Ctx) (uuid.UUID, error) {
	idParam := c.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return uuid.UUID{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return id, nil
}

func getActorID(c *fiber.Ctx) uuid.UUID {
	actor, err := uuid.Parse(c.Get("X-Actor-ID"))
	if err != nil {
		return uuid.Nil
	}
	return actor
}
