package redis

import (
	"fmt"

	"github.com/google/uuid"
)

const ns = "kart:v1"

func KeyRoutes(activeOnly bool) string {
	if activeOnly {
		return ns + ":routes:active"
	}
	return ns + ":routes:all"
}

func KeyRoute(id uuid.UUID) string {
	return fmt.Sprintf("%s:route:%s", ns, id)
}

func KeyMerchandise(activeOnly bool) string {
	if activeOnly {
		return ns + ":merch:active"
	}
	return ns + ":merch:all"
}

func KeyBookingDraft(userID uuid.UUID) string {
	return fmt.Sprintf("%s:booking:%s", ns, userID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdem(scope string, owner uuid.UUID, idemKey string) string {
	return fmt.Sprintf("%s:idem:%s:%s:%s", ns, scope, owner, idemKey)
}

func ChannelNotifications() string {
	return ns + ":notifications"
}
