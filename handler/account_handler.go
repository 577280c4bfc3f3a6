package handler

import (
	"encoding/json"
	"net/http"
	"optimal-bank-api/common"
	"optimal-bank-api/logger"
	"optimal-bank-api/model"
	"optimal-bank-api/service"
	"strconv"

	"github.com/sirupsen/logrus"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateAccount godoc
// @Summary      Open a bank account
// @Description  Opens the single account the authenticated user may hold and sends a welcome email.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        account body model.CreateAccountRequest true "Account details"
// @Success      201  {object}  model.Account
// @Failure      400  {object}  common.AppError "Invalid payload or account already exists"
// @Failure      401  {object}  common.AppError "Unauthorized"
// @Router       /api/accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateAccountRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"account_name": req.AccountName,
	})
	log.Info("Create account request received")

	account, err := h.service.CreateNewAccount(r.Context(), userID, req)
	if err != nil {
		return mapServiceError(err, "Could not create account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
	return nil
}

// GetMyAccount returns the authenticated user's account.
func (h *AccountHandler) GetMyAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}

	account, err := h.service.GetAccountForUser(r.Context(), userID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)
	return nil
}

// ListAccounts returns every account. Admin only.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	accounts, err := h.service.GetAllAccounts()
	if err != nil {
		return common.NewAppError(http.StatusInternalServerError, "Could not retrieve accounts", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(accounts)
	return nil
}

// UpdateAccount renames an account. Admin only.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountNumber, err := strconv.ParseInt(r.PathValue("accountNumber"), 10, 64)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account number in URL path", err)
	}

	var req model.UpdateAccountRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	account, svcErr := h.service.UpdateAccountName(r.Context(), accountNumber, req)
	if svcErr != nil {
		return mapServiceError(svcErr, "Could not update account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(account)
	return nil
}

// DeleteAccount removes an account. Admin only.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	accountNumber, err := strconv.ParseInt(r.PathValue("accountNumber"), 10, 64)
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account number in URL path", err)
	}

	if err := h.service.DeleteAccount(r.Context(), accountNumber); err != nil {
		return mapServiceError(err, "Could not delete account")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Account deleted"})
	return nil
}

// ForgotPin godoc
// @Summary      Request a PIN reset OTP
// @Description  Emails a one-time code, valid for 15 minutes, to the account owner.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body model.ForgotPinRequest true "Account owner email"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  common.AppError "No account for that email"
// @Router       /api/accounts/forgot-pin [post]
func (h *AccountHandler) ForgotPin(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ForgotPinRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if _, err := h.service.IssueResetOTP(r.Context(), req.Email); err != nil {
		return mapServiceError(err, "Could not issue OTP")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "OTP sent to your email",
		"email":   req.Email,
	})
	return nil
}

// ResetPin godoc
// @Summary      Reset the account PIN with an OTP
// @Description  Verifies the one-time code and replaces the stored PIN.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body model.ResetPinRequest true "Email, OTP and new PIN"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  common.AppError "Invalid or expired OTP"
// @Failure      404  {object}  common.AppError "No account for that email"
// @Router       /api/accounts/reset-pin [post]
func (h *AccountHandler) ResetPin(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.ResetPinRequest
	if err := common.ValidateAndDecode(r, &req); err != nil {
		return err
	}

	if err := h.service.ResetPIN(r.Context(), req); err != nil {
		return mapServiceError(err, "Could not reset PIN")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "PIN was reset successfully"})
	return nil
}
