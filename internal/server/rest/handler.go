package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/storekeeper/internal/common"
	"github.com/dmitrijs2005/storekeeper/internal/server/users"
)

func (s *Server) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return newAPIError(http.StatusBadRequest, "Malformed request body.")
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	ctx := c.UserContext()
	session, err := s.users.Register(ctx, users.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fieldError("email", "The email has already been taken.")
		}
		s.logger.Error(ctx, "registration failed", "error", err)
		return err
	}

	s.logger.Info(ctx, "Registered", "user_id", session.User.ID)
	return s.respond(c, http.StatusCreated, newAuthResponse(session))
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return newAPIError(http.StatusBadRequest, "Malformed request body.")
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	ctx := c.UserContext()
	session, err := s.users.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			// 422, not 401: a wrong password is not an expired session
			return fieldError("email", "The provided credentials are incorrect.")
		}
		s.logger.Error(ctx, "login failed", "error", err)
		return err
	}

	return s.respond(c, http.StatusOK, newAuthResponse(session))
}

func (s *Server) logout(c *fiber.Ctx) error {
	if err := s.users.Logout(c.UserContext(), currentUser(c).ID); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Logged out."})
}

func (s *Server) me(c *fiber.Ctx) error {
	return s.respond(c, http.StatusOK, userResponse{User: newUserView(currentUser(c))})
}

func (s *Server) updateVerification(c *fiber.Ctx) error {
	var req verificationRequest
	if err := c.BodyParser(&req); err != nil {
		return newAPIError(http.StatusBadRequest, "Malformed request body.")
	}
	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	user, err := s.users.SetVerification(c.UserContext(), currentUser(c).ID, req.Step, req.Verified)
	if err != nil {
		if errors.Is(err, common.ErrUnknownStep) {
			return fieldError("step", err.Error())
		}
		return err
	}
	return s.respond(c, http.StatusOK, userResponse{User: newUserView(user)})
}

func (s *Server) completeVerification(c *fiber.Ctx) error {
	user, err := s.users.CompleteVerification(c.UserContext(), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, common.ErrVerificationIncomplete) {
			return newAPIError(http.StatusUnprocessableEntity, "All verification steps must be completed first.")
		}
		return err
	}
	s.logger.Info(c.UserContext(), "verification completed", "user_id", user.ID)
	return s.respond(c, http.StatusOK, userResponse{User: newUserView(user)})
}

// respond renders payload directly or under "data", depending on config.
func (s *Server) respond(c *fiber.Ctx, status int, payload any) error {
	if s.wrap {
		return c.Status(status).JSON(fiber.Map{"data": payload})
	}
	return c.Status(status).JSON(payload)
}
