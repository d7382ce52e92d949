package routes

import (
	"net/http"

	"rebelchat/rebelchat/controllers"
	"rebelchat/rebelchat/middlewares"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/types"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(ctrl *controllers.AuthController, tm *tokens.Manager) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.SignUpRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.SignUp(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/confirm-signup", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.ConfirmSignUpRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.ConfirmSignUp(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/resend-code", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.ResendCodeRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.ResendCode(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/signin", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.SignInRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.SignIn(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/forgot-password", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.ForgotPasswordRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.ForgotPassword(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Post("/reset-password", handleJSON(func(r *http.Request) (any, int, error) {
		req, err := decode[types.ResetPasswordRequest](r)
		if err != nil {
			return nil, http.StatusBadRequest, err
		}
		res, err := ctrl.ResetPassword(r.Context(), req)
		if err != nil {
			return nil, http.StatusInternalServerError, err
		}
		return res, http.StatusOK, nil
	}))

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(tm))

		gr.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
			res, err := ctrl.Me(r.Context(), identity(r))
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return res, http.StatusOK, nil
		}))

		gr.Post("/signout", handleJSON(func(r *http.Request) (any, int, error) {
			res, err := ctrl.SignOut(r.Context(), identity(r))
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return res, http.StatusOK, nil
		}))
	})

	return r
}
