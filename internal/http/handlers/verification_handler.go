package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayhub/stayhub-backend/internal/dto"
	"github.com/stayhub/stayhub-backend/internal/http/handlers/common"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/service"
)

// VerificationHandler обслуживает подтверждение телефона по SMS-коду.
type VerificationHandler struct {
	accounts service.EmailVerificationAccounts
	phone    *service.PhoneVerificationService
}

// NewVerificationHandler создаёт хэндлер.
func NewVerificationHandler(accounts service.EmailVerificationAccounts, phone *service.PhoneVerificationService) *VerificationHandler {
	return &VerificationHandler{accounts: accounts, phone: phone}
}

// VerifyPhone обрабатывает POST /verification/phone.
// Код приходит четырьмя полями, по одной цифре в каждом.
func (h *VerificationHandler) VerifyPhone(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.VerificationCodeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	code, err := req.Code()
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			common.RespondNotFound(c, "аккаунт не найден")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	ok, err := h.phone.ValidateCode(c.Request.Context(), account, code)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}
	if !ok {
		common.RespondBadRequest(c, "неверный код подтверждения")
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{"phone_confirmed": true})
}

// DeliveryStatus обрабатывает GET /verification/phone/status.
// Пустой статус означает, что отправок ещё не было либо статус истёк.
func (h *VerificationHandler) DeliveryStatus(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	status, err := h.phone.DeliveryStatus(c.Request.Context(), accountID)
	if err != nil {
		common.RespondInternalError(c, "")
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.DeliveryStatusResponse{Status: status})
}
