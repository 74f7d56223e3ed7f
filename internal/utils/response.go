package utils

import "github.com/gofiber/fiber/v3"

// ErrorResponse sends an {"error": message} body with the given status
func ErrorResponse(c fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"error": message,
	})
}

// PaginatedResponse sends {data, meta{total, page, limit, pages}}
func PaginatedResponse(c fiber.Ctx, data interface{}, page, limit int, total int64) error {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return c.JSON(fiber.Map{
		"data": data,
		"meta": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
			"pages": pages,
		},
	})
}
