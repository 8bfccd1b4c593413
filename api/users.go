package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/KlausAbut/flowboard-app/domain"
)

type userResponse struct {
	User domain.PublicUser `json:"user"`
}

func register(store Storage, auth *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "missing_fields")
		}
		if req.Email == "" || req.Name == "" || req.Password == "" {
			return errJSON(c, http.StatusBadRequest, "missing_fields")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.Logger().Error(err)
			return errJSON(c, http.StatusInternalServerError, "server_error")
		}
		user, err := store.CreateUser(c.Request().Context(), req.Email, req.Name, string(hash))
		if err != nil {
			return storeError(c, err)
		}

		token, err := auth.SignToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return errJSON(c, http.StatusInternalServerError, "server_error")
		}
		c.SetCookie(sessionCookie(token, int(tokenTTL.Seconds())))
		return c.JSON(http.StatusCreated, userResponse{User: user.Public()})
	}
}

func login(store Storage, auth *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return errJSON(c, http.StatusBadRequest, "missing")
		}
		if req.Email == "" || req.Password == "" {
			return errJSON(c, http.StatusBadRequest, "missing")
		}

		user, err := store.UserByEmail(c.Request().Context(), req.Email)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return errJSON(c, http.StatusUnauthorized, "invalid")
			}
			return storeError(c, err)
		}
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			return errJSON(c, http.StatusUnauthorized, "invalid")
		}

		token, err := auth.SignToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return errJSON(c, http.StatusInternalServerError, "server_error")
		}
		c.SetCookie(sessionCookie(token, int(tokenTTL.Seconds())))
		return c.JSON(http.StatusOK, userResponse{User: user.Public()})
	}
}

func logout() echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetCookie(sessionCookie("", -1))
		return c.JSON(http.StatusOK, map[string]bool{"ok": true})
	}
}

func listUsers(store Storage) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := store.ListUsers(c.Request().Context())
		if err != nil {
			return storeError(c, err)
		}
		public := make([]domain.PublicUser, len(users))
		for i, u := range users {
			public[i] = u.Public()
		}
		return c.JSON(http.StatusOK, public)
	}
}
