package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/opensource-kemini/kemini-backend/internal/common"
)

func (s *Server) fail(c echo.Context, err error) error {
	status, body := translate(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", "error", err.Error())
	}
	return c.JSON(status, body)
}

// principalEmail returns the caller's identity. Routes behind RequireAuth
// always have one; the fallback guards direct handler use in tests.
func principalEmail(c echo.Context) (string, error) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		return "", common.ErrUnauthenticated
	}
	return p.Email, nil
}

func envIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("envId"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid environment id", common.ErrValidation)
	}
	return id, nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
	}

	user, err := s.users.SignUp(c.Request().Context(), req.Email, req.Password, req.Name, req.PhoneNumber)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("sign-up completed", toUserResponse(user)))
}

func (s *Server) handleGetMe(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	user, err := s.users.GetInfo(c.Request().Context(), email)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("profile fetched", toUserResponse(user)))
}

func (s *Server) handleUpdateMe(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
	}

	user, err := s.users.Update(c.Request().Context(), email, req.Name, req.PhoneNumber)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("profile updated", toUserResponse(user)))
}

func (s *Server) handleDeleteMe(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	if err := s.users.Delete(c.Request().Context(), email); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("account deleted", nil))
}

func (s *Server) handleCreateEnvironment(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req environmentRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
	}

	agg, err := s.environments.Create(c.Request().Context(), email, req.Name)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("environment created", toEnvironmentResponse(agg)))
}

func (s *Server) handleRequestUpload(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	envID, err := envIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req uploadURLRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
	}

	ticket, err := s.environments.RequestUpload(c.Request().Context(), email, envID, req.FileType, req.FileName)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("upload URL issued",
		uploadURLResponse{UploadURL: ticket.UploadURL, FileURL: ticket.FileURL}))
}

func (s *Server) handleListEnvironments(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	aggs, err := s.environments.List(c.Request().Context(), email)
	if err != nil {
		return s.fail(c, err)
	}

	result := make([]environmentResponse, 0, len(aggs))
	for _, agg := range aggs {
		result = append(result, toEnvironmentResponse(agg))
	}

	return c.JSON(http.StatusOK, successResponse("environments listed", result))
}

func (s *Server) handleGetEnvironment(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	envID, err := envIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}

	agg, err := s.environments.Get(c.Request().Context(), email, envID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("environment fetched", toEnvironmentResponse(agg)))
}

func (s *Server) handleRenameEnvironment(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	envID, err := envIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}

	var req environmentRequest
	if err := c.Bind(&req); err != nil {
		return s.fail(c, fmt.Errorf("%w: invalid request body", common.ErrValidation))
	}

	agg, err := s.environments.Rename(c.Request().Context(), email, envID, req.Name)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("environment renamed", toEnvironmentResponse(agg)))
}

func (s *Server) handleDeleteEnvironment(c echo.Context) error {
	email, err := principalEmail(c)
	if err != nil {
		return s.fail(c, err)
	}

	envID, err := envIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}

	if err := s.environments.Delete(c.Request().Context(), email, envID); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, successResponse("environment deleted", nil))
}
