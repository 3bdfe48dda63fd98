package models

// CodeDeliveryStatus описывает судьбу последней отправки кода подтверждения.
type CodeDeliveryStatus string

const (
	// Код доставлен провайдером.
	CodeStatusDelivered CodeDeliveryStatus = "delivered"
	// Провайдер не смог отправить код.
	CodeStatusFailed CodeDeliveryStatus = "failed"
	// Отправка подавлена кулдауном.
	CodeStatusCooldown CodeDeliveryStatus = "cooldown"
)

// IsProviderFailure проверяет, считается ли статус провайдера неуспешной отправкой.
func IsProviderFailure(providerStatus string) bool {
	switch providerStatus {
	case "failed", "undelivered":
		return true
	}
	return false
}
