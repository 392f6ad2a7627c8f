package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskticker-api/domain"
	"taskticker-api/identity"
	"taskticker-api/tasks"
)

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, repo Repository, accounts Accounts, auth Authenticator, logger *log.Logger) {
	e.POST("/api/auth/register", registerAccount(accounts))
	e.POST("/api/auth/login", loginAccount(accounts))
	e.POST("/api/auth/logout", logoutAccount(accounts))
	e.GET("/api/auth/me", currentAccount(auth))

	e.GET("/api/tasks", listTasks(repo, auth, logger))
	e.POST("/api/tasks", createTask(repo, auth))
	e.PATCH("/api/tasks/:id", updateTask(repo, auth))
	e.POST("/api/tasks/:id/completion", toggleTaskCompletion(repo, auth))
	e.DELETE("/api/tasks/:id", deleteTask(repo, auth))

	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func registerAccount(accounts Accounts) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		id, token, err := accounts.Register(c.Request().Context(), req.Email, req.Password, req.ConfirmPassword)
		if err != nil {
			return writeAuthError(c, err)
		}
		return c.JSON(http.StatusOK, authResponse{
			UserID:      id.ID,
			Email:       id.Email,
			DisplayName: id.DisplayName,
			IDToken:     token,
		})
	}
}

func loginAccount(accounts Accounts) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		id, token, err := accounts.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return writeAuthError(c, err)
		}
		return c.JSON(http.StatusOK, authResponse{
			UserID:      id.ID,
			Email:       id.Email,
			DisplayName: id.DisplayName,
			IDToken:     token,
		})
	}
}

func logoutAccount(accounts Accounts) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := bearerTokenFromString(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := accounts.Logout(c.Request().Context(), string(token)); err != nil {
			return writeAuthError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func currentAccount(auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		return c.JSON(http.StatusOK, id)
	}
}

func listTasks(repo Repository, auth Authenticator, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newTaskRequestMetrics(ctx, logger)
		if spanCtx != nil {
			req := c.Request().WithContext(spanCtx)
			c.SetRequest(req)
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		id, authErr := auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.String(http.StatusUnauthorized, authErr.Error())
			return err
		}

		fetchStart := time.Now()
		list, fetchErr := repo.List(ctx, identity.NewAuthenticatedSession(id))
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.String(http.StatusInternalServerError, fetchErr.Error())
			return err
		}
		metrics.SetTasksReturned(len(list))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, tasksResponse{Tasks: list})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func createTask(repo Repository, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := sessionFromHeader(auth, c)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var in domain.TaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		id, err := repo.Create(c.Request().Context(), sess, in)
		if err != nil {
			return writeTaskError(c, err)
		}
		return c.JSON(http.StatusCreated, taskCreatedResponse{ID: id})
	}
}

func updateTask(repo Repository, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := sessionFromHeader(auth, c)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var patch domain.TaskPatch
		if err := decodeBody(c, &patch); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := repo.Update(c.Request().Context(), sess, c.Param("id"), patch); err != nil {
			return writeTaskError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func toggleTaskCompletion(repo Repository, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := sessionFromHeader(auth, c)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		var req completionRequest
		if err := decodeBody(c, &req); err != nil || req.Completed == nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		if err := repo.ToggleCompletion(c.Request().Context(), sess, c.Param("id"), *req.Completed); err != nil {
			return writeTaskError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func deleteTask(repo Repository, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := sessionFromHeader(auth, c)
		if err != nil {
			return c.String(http.StatusUnauthorized, err.Error())
		}
		if err := repo.Delete(c.Request().Context(), sess, c.Param("id")); err != nil {
			return writeTaskError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func sessionFromHeader(auth Authenticator, c echo.Context) (*identity.Session, error) {
	id, err := auth.IdentityFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return identity.NewAuthenticatedSession(id), nil
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxRequestBodySize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeTaskError(c echo.Context, err error) error {
	var fe domain.FieldErrors
	switch {
	case errors.Is(err, tasks.ErrNotAuthenticated):
		return c.String(http.StatusUnauthorized, err.Error())
	case errors.Is(err, tasks.ErrTaskNotFound):
		return c.String(http.StatusNotFound, err.Error())
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, validationResponse{Errors: fe})
	default:
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}

func writeAuthError(c echo.Context, err error) error {
	var fe domain.FieldErrors
	var perr identity.ProviderError
	switch {
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, validationResponse{Errors: fe})
	case errors.As(err, &perr):
		status := http.StatusBadRequest
		if perr.Status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return c.String(status, perr.Message)
	default:
		c.Logger().Error(err)
		return c.String(http.StatusInternalServerError, err.Error())
	}
}
