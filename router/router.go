package router

import (
	"net/http"
	"optimal-bank-api/common"
	"optimal-bank-api/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "optimal-bank-api/docs"
)

func NewRouter(userHandler *handler.UserHandler, accountHandler *handler.AccountHandler, transactionHandler *handler.TransactionHandler) http.Handler {
	mux := http.NewServeMux()

	// Public surface.
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	mux.Handle("POST /api/users/register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /api/users/login", handler.ErrorHandlingMiddleware(userHandler.Login))
	mux.Handle("POST /api/accounts/forgot-pin", handler.ErrorHandlingMiddleware(accountHandler.ForgotPin))
	mux.Handle("POST /api/accounts/reset-pin", handler.ErrorHandlingMiddleware(accountHandler.ResetPin))

	// Authenticated surface.
	authed := func(h func(http.ResponseWriter, *http.Request) *common.AppError) http.Handler {
		return handler.AuthMiddleware(handler.ErrorHandlingMiddleware(h))
	}
	mux.Handle("POST /api/accounts", authed(accountHandler.CreateAccount))
	mux.Handle("GET /api/accounts/me", authed(accountHandler.GetMyAccount))
	mux.Handle("GET /api/accounts/{accountId}/transactions", authed(transactionHandler.ListTransactionsForAccount))
	mux.Handle("POST /api/transactions/deposit", authed(transactionHandler.Deposit))
	mux.Handle("POST /api/transactions/withdraw", authed(transactionHandler.Withdraw))

	// Admin surface.
	admin := func(h func(http.ResponseWriter, *http.Request) *common.AppError) http.Handler {
		return handler.AuthMiddleware(handler.AdminMiddleware(handler.ErrorHandlingMiddleware(h)))
	}
	mux.Handle("GET /api/users", admin(userHandler.ListUsers))
	mux.Handle("PUT /api/users/{userId}/role", admin(userHandler.UpdateUserRole))
	mux.Handle("GET /api/accounts", admin(accountHandler.ListAccounts))
	mux.Handle("PUT /api/accounts/{accountNumber}", admin(accountHandler.UpdateAccount))
	mux.Handle("DELETE /api/accounts/{accountNumber}", admin(accountHandler.DeleteAccount))
	mux.Handle("POST /api/transactions", admin(transactionHandler.CreateTransaction))
	mux.Handle("GET /api/transactions", admin(transactionHandler.ListTransactions))
	mux.Handle("GET /api/transactions/{id}", admin(transactionHandler.GetTransaction))
	mux.Handle("PUT /api/transactions/{id}", admin(transactionHandler.UpdateTransaction))
	mux.Handle("DELETE /api/transactions/{id}", admin(transactionHandler.DeleteTransaction))

	return mux
}
