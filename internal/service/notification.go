package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"starkride/internal/domain"
	"starkride/internal/notifier"
)

// Notification types.
const (
	NotificationRideBooked      = "RIDE_BOOKED"
	NotificationRideStatus      = "RIDE_STATUS"
	NotificationRideStarted     = "RIDE_STARTED"
	NotificationRideCancelled   = "RIDE_CANCELLED"
	NotificationWalletCredited  = "WALLET_CREDITED"
	NotificationWalletRefunded  = "WALLET_REFUNDED"
	NotificationDriverSuspended = "DRIVER_SUSPENDED"
)

// NotificationService turns ride and wallet events into notifications
// and hands them to the configured publisher. Delivery failures are
// logged and swallowed; notifications never fail a core operation.
type NotificationService struct {
	publisher notifier.Notifier
	logger    *zap.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(publisher notifier.Notifier, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		publisher: publisher,
		logger:    logger,
	}
}

// NotifyRideBooked tells the rider a driver accepted their request.
func (s *NotificationService) NotifyRideBooked(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, notifier.Notification{
		Type:          NotificationRideBooked,
		RecipientID:   ride.UserID,
		RecipientRole: notifier.RoleUser,
		Title:         "Ride Booked",
		Body:          "A driver has accepted your ride request.",
		Data: map[string]string{
			"ride_id":    ride.ID,
			"driver_id":  ride.DriverID,
			"otp":        ride.OTP,
			"total_fare": strconv.FormatInt(ride.TotalFare, 10),
		},
	})
}

// NotifyRideStatus tells the rider about a lifecycle transition.
func (s *NotificationService) NotifyRideStatus(ctx context.Context, ride *domain.Ride, status domain.RideStatus) {
	s.send(ctx, notifier.Notification{
		Type:          NotificationRideStatus,
		RecipientID:   ride.UserID,
		RecipientRole: notifier.RoleUser,
		Title:         "Ride Update",
		Body:          fmt.Sprintf("Your ride is now %s.", status),
		Data: map[string]string{
			"ride_id": ride.ID,
			"status":  string(status),
		},
	})
}

// NotifyRideStarted tells the rider the trip is underway.
func (s *NotificationService) NotifyRideStarted(ctx context.Context, ride *domain.Ride) {
	s.send(ctx, notifier.Notification{
		Type:          NotificationRideStarted,
		RecipientID:   ride.UserID,
		RecipientRole: notifier.RoleUser,
		Title:         "Ride Started",
		Body:          "Your ride has started.",
		Data: map[string]string{
			"ride_id": ride.ID,
		},
	})
}

// NotifyRideCancelled tells the party that did not cancel.
func (s *NotificationService) NotifyRideCancelled(ctx context.Context, ride *domain.Ride, cancelledBy, reason string) {
	recipientID := ride.UserID
	recipientRole := notifier.RoleUser
	body := "The driver has cancelled the ride."
	if cancelledBy == ride.UserID {
		recipientID = ride.DriverID
		recipientRole = notifier.RoleDriver
		body = "The rider has cancelled the ride."
	}

	s.send(ctx, notifier.Notification{
		Type:          NotificationRideCancelled,
		RecipientID:   recipientID,
		RecipientRole: recipientRole,
		Title:         "Ride Cancelled",
		Body:          body,
		Data: map[string]string{
			"ride_id":      ride.ID,
			"cancelled_by": cancelledBy,
			"reason":       reason,
		},
	})
}

// NotifyWalletCredited tells the driver a recharge landed.
func (s *NotificationService) NotifyWalletCredited(ctx context.Context, txn *domain.WalletTransaction) {
	s.send(ctx, notifier.Notification{
		Type:          NotificationWalletCredited,
		RecipientID:   txn.DriverID,
		RecipientRole: notifier.RoleDriver,
		Title:         "Wallet Recharged",
		Body:          fmt.Sprintf("Your wallet was credited with %d.", txn.NetAmount),
		Data: map[string]string{
			"payment_id": txn.PaymentID,
			"amount":     strconv.FormatInt(txn.NetAmount, 10),
		},
	})
}

// NotifyWalletRefunded tells the driver a cancellation refund landed.
func (s *NotificationService) NotifyWalletRefunded(ctx context.Context, driverID, rideID string, amount int64) {
	s.send(ctx, notifier.Notification{
		Type:          NotificationWalletRefunded,
		RecipientID:   driverID,
		RecipientRole: notifier.RoleDriver,
		Title:         "Refund Credited",
		Body:          fmt.Sprintf("A refund of %d was credited to your wallet.", amount),
		Data: map[string]string{
			"ride_id": rideID,
			"amount":  strconv.FormatInt(amount, 10),
		},
	})
}

// NotifyDriverSuspended tells the driver their account was suspended.
func (s *NotificationService) NotifyDriverSuspended(ctx context.Context, driverID string) {
	s.send(ctx, notifier.Notification{
		Type:          NotificationDriverSuspended,
		RecipientID:   driverID,
		RecipientRole: notifier.RoleDriver,
		Title:         "Account Suspended",
		Body:          "Your account has been suspended. Contact support for review.",
	})
}

func (s *NotificationService) send(ctx context.Context, n notifier.Notification) {
	if s == nil || s.publisher == nil {
		return
	}

	n.CreatedAt = time.Now()
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.Warn("notification publish failed",
			zap.String("type", n.Type),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err),
		)
	}
}
