// Package api holds the response envelope shared by all handlers.
package api

import "github.com/gofiber/fiber/v2"

// Envelope is the uniform success payload shape.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *fiber.Ctx, message string, data any) error {
	return SuccessStatus(c, fiber.StatusOK, message, data)
}

// Created writes a 201 envelope.
func Created(c *fiber.Ctx, message string, data any) error {
	return SuccessStatus(c, fiber.StatusCreated, message, data)
}

// SuccessStatus writes an envelope with an explicit status code.
func SuccessStatus(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Envelope{Status: "success", Message: message, Data: data})
}
