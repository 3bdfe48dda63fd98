package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stayhub/stayhub-backend/internal/http/handlers/common"
	"github.com/stayhub/stayhub-backend/internal/repository"
	"github.com/stayhub/stayhub-backend/internal/service"
)

// AccountHandler обслуживает подтверждение email.
type AccountHandler struct {
	accounts   service.EmailVerificationAccounts
	emailVerif *service.EmailVerificationService
}

// NewAccountHandler создаёт хэндлер.
func NewAccountHandler(accounts service.EmailVerificationAccounts, emailVerif *service.EmailVerificationService) *AccountHandler {
	return &AccountHandler{accounts: accounts, emailVerif: emailVerif}
}

// Activate обрабатывает GET /accounts/activate/:uid/:token/.
//
// Ответ одинаков для всех негодных ссылок: битый uid, чужой аккаунт,
// истёкший или уже использованный токен.
func (h *AccountHandler) Activate(c *gin.Context) {
	account, err := h.emailVerif.Confirm(c.Request.Context(), c.Param("uid"), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidLink) {
			common.RespondBadRequest(c, "ссылка подтверждения недействительна")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	common.RespondSuccess(c, http.StatusOK, "email подтверждён", gin.H{
		"email":           account.Email,
		"email_confirmed": account.EmailConfirmed,
	})
}

// ResendConfirmation обрабатывает POST /accounts/confirmation/resend.
// Внутри окна кулдауна повтор молча проглатывается.
func (h *AccountHandler) ResendConfirmation(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
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

	if account.EmailConfirmed {
		common.RespondBadRequest(c, "email уже подтверждён")
		return
	}

	if err := h.emailVerif.SendConfirmation(c.Request.Context(), account); err != nil {
		common.RespondInternalError(c, "не удалось отправить письмо")
		return
	}

	common.RespondSuccess(c, http.StatusAccepted, "письмо подтверждения отправлено", nil)
}
