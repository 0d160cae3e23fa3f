package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "offer_engine"

var (
	SellerLockWait = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "seller_lock_wait_seconds",
		Help:      "Время ожидания блокировки продавца.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
	}, []string{"seller_kind"})

	SellerLockTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "seller_lock_timeouts_total",
		Help:      "Количество отказов по таймауту ожидания блокировки продавца.",
	}, []string{"seller_kind"})

	OfferTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "offer_transitions_total",
		Help:      "Переходы предложений по итоговому статусу.",
	}, []string{"status"})

	SessionsMerged = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_merged_total",
		Help:      "Количество исходных сессий, поглощённых объединением.",
	})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Количество созданных заказов.",
	})

	InventoryReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inventory_units_released_total",
		Help:      "Единицы товара, возвращённые в остаток при отмене заказов.",
	})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Ошибки доставки уведомлений по каналу.",
	}, []string{"sink"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
