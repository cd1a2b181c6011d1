package assignment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/entities"
	"dispatch/internal/repository/inmem"
	"dispatch/internal/service/assignment"
	"dispatch/internal/service/courier"
	"dispatch/pkg/logger"
)

type recordingPush struct {
	mu     sync.Mutex
	sentTo []int64
}

func (p *recordingPush) SendToCourier(_ context.Context, courierID int64, _, _ string, _ map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentTo = append(p.sentTo, courierID)
	return nil
}

type assignmentEnv struct {
	service        *assignment.Assignment
	deliveries     *inmem.DeliveryRepository
	notifications  *inmem.NotificationRepository
	courierService *courier.Courier
	push           *recordingPush
}

func newAssignmentEnv() *assignmentEnv {
	env := &assignmentEnv{
		deliveries:    inmem.NewDeliveryRepository(),
		notifications: inmem.NewNotificationRepository(),
		push:          &recordingPush{},
	}
	env.courierService = courier.New(inmem.NewCourierRepository())
	env.service = assignment.New(
		env.deliveries,
		env.notifications,
		env.courierService,
		env.push,
		logger.NewNop(),
	)
	return env
}

// seedOffer создаёт pending-доставку, курьеров и разосланные им
// уведомления, как это делает диспетчеризация.
func (env *assignmentEnv) seedOffer(t *testing.T, courierCount int) (string, []int64) {
	t.Helper()
	ctx := context.Background()

	delivery := &entities.Delivery{
		ID:        uuid.NewString(),
		OrderID:   uuid.NewString(),
		Status:    entities.DeliveryPending,
		CreatedAt: time.Now().UTC(),
	}
	_, err := env.deliveries.Create(ctx, delivery)
	require.NoError(t, err)

	courierIDs := make([]int64, 0, courierCount)
	batch := make([]entities.DispatchNotification, 0, courierCount)
	for i := 0; i < courierCount; i++ {
		id, err := env.courierService.CreateCourier(ctx, entities.CourierModify{
			UserID:        pointer.To(int64(1000 + i)),
			Name:          pointer.To("Courier"),
			Phone:         pointer.To("+7916000" + string(rune('0'+i/10)) + string(rune('0'+i%10)) + "00"),
			Status:        pointer.To(entities.CourierAvailable),
			TransportType: pointer.To(entities.Scooter),
		})
		require.NoError(t, err)
		courierIDs = append(courierIDs, id)

		batch = append(batch, entities.DispatchNotification{
			CourierID:  id,
			DeliveryID: delivery.ID,
			Status:     entities.NotificationSent,
			CreatedAt:  time.Now().UTC(),
		})
	}

	_, err = env.notifications.CreateBatch(ctx, batch)
	require.NoError(t, err)
	return delivery.ID, courierIDs
}

func TestAssignment_Accept_SingleWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newAssignmentEnv()
	deliveryID, courierIDs := env.seedOffer(t, 10)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []int64
		losers  int
	)

	for _, courierID := range courierIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := env.service.Accept(ctx, deliveryID, courierID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, courierID)
			case errors.Is(err, assignment.ErrAlreadyAssigned):
				losers++
			default:
				t.Errorf("unexpected accept error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1, "победитель должен быть ровно один")
	assert.Equal(t, len(courierIDs)-1, losers)

	delivery, err := env.deliveries.GetByID(ctx, deliveryID)
	require.NoError(t, err)
	assert.Equal(t, entities.DeliveryAssigned, delivery.Status)
	require.NotNil(t, delivery.CourierID)
	assert.Equal(t, winners[0], *delivery.CourierID)

	// победитель занят, проигравшие вернулись в available
	for _, courierID := range courierIDs {
		stored, err := env.courierService.GetCourier(ctx, courierID)
		require.NoError(t, err)
		if courierID == winners[0] {
			assert.Equal(t, entities.CourierBusy, stored.Status)
		} else {
			assert.Equal(t, entities.CourierAvailable, stored.Status)
		}
	}
}

func TestAssignment_Accept_SettlesNotifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newAssignmentEnv()
	deliveryID, courierIDs := env.seedOffer(t, 4)
	winner := courierIDs[0]

	_, err := env.service.Accept(ctx, deliveryID, winner)
	require.NoError(t, err)

	notifications, err := env.notifications.ListByDelivery(ctx, deliveryID)
	require.NoError(t, err)
	require.Len(t, notifications, len(courierIDs))

	for _, n := range notifications {
		if n.CourierID == winner {
			assert.Equal(t, entities.NotificationAccepted, n.Status)
		} else {
			assert.Equal(t, entities.NotificationCancelled, n.Status)
		}
	}

	// остальным ушёл пуш о закрытии предложения
	env.push.mu.Lock()
	defer env.push.mu.Unlock()
	assert.ElementsMatch(t, courierIDs[1:], env.push.sentTo)
}

func TestAssignment_Accept_CourierBusy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newAssignmentEnv()
	deliveryID, courierIDs := env.seedOffer(t, 2)

	require.NoError(t, env.courierService.MarkBusy(ctx, courierIDs[0]))

	_, err := env.service.Accept(ctx, deliveryID, courierIDs[0])
	require.ErrorIs(t, err, assignment.ErrCourierUnavailable)

	// доставка осталась свободной для второго курьера
	_, err = env.service.Accept(ctx, deliveryID, courierIDs[1])
	require.NoError(t, err)
}

func TestAssignment_Accept_UnknownDelivery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newAssignmentEnv()
	_, courierIDs := env.seedOffer(t, 1)

	_, err := env.service.Accept(ctx, uuid.NewString(), courierIDs[0])
	require.ErrorIs(t, err, assignment.ErrDeliveryNotFound)

	// курьер не должен застрять в busy после неудачного приёма
	stored, err := env.courierService.GetCourier(ctx, courierIDs[0])
	require.NoError(t, err)
	assert.Equal(t, entities.CourierAvailable, stored.Status)
}

func TestAssignment_Refuse_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	env := newAssignmentEnv()
	deliveryID, courierIDs := env.seedOffer(t, 2)

	require.NoError(t, env.service.Refuse(ctx, deliveryID, courierIDs[0]))
	// повторный отказ проходит без ошибки
	require.NoError(t, env.service.Refuse(ctx, deliveryID, courierIDs[0]))
	// отказ без уведомления тоже не ошибка
	require.NoError(t, env.service.Refuse(ctx, deliveryID, 9999))

	notification, err := env.notifications.GetByDeliveryAndCourier(ctx, deliveryID, courierIDs[0])
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, entities.NotificationRefused, notification.Status)

	// отказавшийся не блокирует приём вторым курьером
	_, err = env.service.Accept(ctx, deliveryID, courierIDs[1])
	require.NoError(t, err)
}

func TestAssignment_Accept_Validation(t *testing.T) {
	t.Parallel()

	env := newAssignmentEnv()

	_, err := env.service.Accept(context.Background(), "not-a-uuid", 1)
	require.ErrorIs(t, err, assignment.ErrInvalidDeliveryID)

	_, err = env.service.Accept(context.Background(), uuid.NewString(), 0)
	require.ErrorIs(t, err, assignment.ErrInvalidCourierID)
}
