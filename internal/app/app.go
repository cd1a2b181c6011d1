package app

import (
	"context"
	"net/http"
	"time"

	"github.com/avito-tech/go-transaction-manager/pgxv5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	geocoderGateway "dispatch/internal/gateway/geocoder"
	orderGateway "dispatch/internal/gateway/orders"
	pushGateway "dispatch/internal/gateway/push"
	"dispatch/internal/geoindex"
	"dispatch/internal/handlers/rest/courier_get"
	"dispatch/internal/handlers/rest/courier_post"
	"dispatch/internal/handlers/rest/courier_put"
	"dispatch/internal/handlers/rest/couriers_get"
	"dispatch/internal/handlers/rest/deliveries_get"
	"dispatch/internal/handlers/rest/delivery_accept_post"
	"dispatch/internal/handlers/rest/delivery_get"
	"dispatch/internal/handlers/rest/delivery_post"
	"dispatch/internal/handlers/rest/delivery_refuse_post"
	"dispatch/internal/handlers/rest/delivery_route_get"
	"dispatch/internal/handlers/rest/delivery_status_put"
	"dispatch/internal/handlers/rest/location_get"
	"dispatch/internal/handlers/rest/location_history_get"
	"dispatch/internal/handlers/rest/location_post"
	"dispatch/internal/handlers/rest/notification_delete"
	"dispatch/internal/handlers/rest/notifications_get"
	"dispatch/internal/handlers/tasks/notification_redispatch"
	"dispatch/internal/pkg/config"
	courierRepo "dispatch/internal/repository/courier"
	deliveryRepo "dispatch/internal/repository/delivery"
	locationRepo "dispatch/internal/repository/location"
	notificationRepo "dispatch/internal/repository/notification"
	assignmentService "dispatch/internal/service/assignment"
	courierService "dispatch/internal/service/courier"
	dispatchService "dispatch/internal/service/dispatch"
	notificationService "dispatch/internal/service/notification"
	"dispatch/internal/service/routing"
	trackingService "dispatch/internal/service/tracking"
	"dispatch/pkg/background"
	"dispatch/pkg/logger"
	"dispatch/pkg/querier"
	"dispatch/pkg/tx"
)

const (
	gatewayHTTPTimeout = 10 * time.Second

	defaultGeoNamespace = "dispatch"
	defaultHistoryLimit = 100
)

type Application struct {
	ServiceCourier      ServiceCourier
	ServiceDispatch     ServiceDispatch
	ServiceAssignment   ServiceAssignment
	ServiceTracking     ServiceTracking
	ServiceNotification ServiceNotification
	BackgroundWorkers   *background.Worker
}

type ServiceCourier interface {
	courier_get.Service
	courier_post.Service
	courier_put.Service
	couriers_get.Service
}

type ServiceDispatch interface {
	delivery_post.Service
	delivery_get.Service
	deliveries_get.Service
	delivery_status_put.Service
	delivery_route_get.Service
}

type ServiceAssignment interface {
	delivery_accept_post.Service
	delivery_refuse_post.Service
}

type ServiceTracking interface {
	location_post.Service
	location_get.Service
	location_history_get.Service
}

type ServiceNotification interface {
	notifications_get.Service
	notification_delete.Service
}

type services struct {
	courier      *courierService.Courier
	dispatch     *dispatchService.Dispatch
	assignment   *assignmentService.Assignment
	tracking     *trackingService.Tracking
	notification *notificationService.Notification
}

// InitializeApplication для HTTP сервиса (cmd/service)
func InitializeApplication(
	ctx context.Context,
	log logger.Logger,
	pool *pgxpool.Pool,
	getter *pgxv5.CtxGetter,
	redisClient *redis.Client,
	cfg *config.Config,
) (*Application, error) {
	svc := buildServices(log, pool, getter, redisClient, cfg)

	redispatchTask := notification_redispatch.New(
		log,
		svc.dispatch,
		cfg.Tasks.NotificationRedispatchInterval,
	)

	workers, err := background.New(ctx, log, []background.Task{redispatchTask})
	if err != nil {
		return nil, err
	}

	return &Application{
		ServiceCourier:      svc.courier,
		ServiceDispatch:     svc.dispatch,
		ServiceAssignment:   svc.assignment,
		ServiceTracking:     svc.tracking,
		ServiceNotification: svc.notification,
		BackgroundWorkers:   workers,
	}, nil
}

type KafkaWorkerApp struct {
	DispatchService *dispatchService.Dispatch
}

// InitializeKafkaWorkerApp для Kafka воркера (cmd/worker-order-paid)
func InitializeKafkaWorkerApp(
	log logger.Logger,
	pool *pgxpool.Pool,
	getter *pgxv5.CtxGetter,
	redisClient *redis.Client,
	cfg *config.Config,
) *KafkaWorkerApp {
	svc := buildServices(log, pool, getter, redisClient, cfg)

	return &KafkaWorkerApp{
		DispatchService: svc.dispatch,
	}
}

func buildServices(
	log logger.Logger,
	pool *pgxpool.Pool,
	getter *pgxv5.CtxGetter,
	redisClient *redis.Client,
	cfg *config.Config,
) *services {
	txManager := tx.New(pool)
	q := querier.New(pool, getter)

	couriers := courierRepo.New(q)
	deliveries := deliveryRepo.New(q)
	notifications := notificationRepo.New(q)
	locations := locationRepo.New(q)

	httpClient := &http.Client{Timeout: gatewayHTTPTimeout}
	orders := orderGateway.New(cfg.OrderService.BaseURL, httpClient)
	push := pushGateway.New(cfg.PushService.BaseURL, httpClient)
	geocoder := geocoderGateway.New(cfg.Geocoder.BaseURL, cfg.Geocoder.APIKey, httpClient)

	estimator := routing.New(geocoder, routing.DefaultCacheTTL)

	namespace := cfg.Redis.Namespace
	if namespace == "" {
		namespace = defaultGeoNamespace
	}
	historyLimit := cfg.Redis.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	couriersIndex := geoindex.NewRedisIndex(redisClient, namespace+":couriers", historyLimit)
	deliveriesIndex := geoindex.NewRedisIndex(redisClient, namespace+":deliveries", historyLimit)

	courierSvc := courierService.New(couriers)
	dispatchSvc := dispatchService.New(
		deliveries,
		notifications,
		courierSvc,
		couriersIndex,
		deliveriesIndex,
		estimator,
		orders,
		push,
		txManager,
		log,
	)
	assignmentSvc := assignmentService.New(
		deliveries,
		notifications,
		courierSvc,
		push,
		log,
	)
	trackingSvc := trackingService.New(
		locations,
		deliveries,
		couriersIndex,
		estimator,
		txManager,
		log,
	)
	notificationSvc := notificationService.New(notifications)

	return &services{
		courier:      courierSvc,
		dispatch:     dispatchSvc,
		assignment:   assignmentSvc,
		tracking:     trackingSvc,
		notification: notificationSvc,
	}
}
