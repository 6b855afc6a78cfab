package service

import (
	"github.com/shopspring/decimal"

	postgres "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/postgres"
	redis "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/booking"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/catalog"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/feedback"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/notifications"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/orders"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/payments"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/points"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/users"
)

type Services struct {
	Users         *users.Service
	Catalog       *catalog.Service
	Booking       *booking.Service
	Orders        *orders.Service
	Payments      *payments.Service
	Points        *points.Service
	Feedback      *feedback.Service
	Notifications *notifications.Service
}

type Config struct {
	Users      users.Config
	Catalog    catalog.Config
	PointsRate decimal.Decimal
}

// Redis groups the Redis-backed helpers shared by the services.
type Redis struct {
	Cache   *redis.Cache
	Drafts  *redis.DraftStore
	PubSub  *redis.NotificationsPubSub
	Limiter *redis.SlidingWindowLimiter
}

func NewServices(store *postgres.Store, rd Redis, cfg Config) *Services {
	notifier := notifications.New(store.Notifications(), rd.PubSub)
	ledger := points.New(store, store.Points(), points.Config{Rate: cfg.PointsRate})

	return &Services{
		Users:         users.New(store, store.Users(), notifier, rd.Limiter, cfg.Users),
		Catalog:       catalog.New(store.Catalog(), rd.Cache, cfg.Catalog),
		Booking:       booking.New(store, store.Catalog(), store.Tickets(), store.Payments(), rd.Drafts, notifier),
		Orders:        orders.New(store, store.Orders(), store.Catalog(), store.Tickets(), store.Payments(), ledger, notifier),
		Payments:      payments.New(store, store.Payments(), store.Tickets(), notifier),
		Points:        ledger,
		Feedback:      feedback.New(store.Feedback(), notifier),
		Notifications: notifier,
	}
}
