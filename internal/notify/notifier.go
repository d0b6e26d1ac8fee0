package notify

import (
	"fmt"

	"resort-booking/internal/logger"
	"resort-booking/internal/models"
	"resort-booking/internal/utils"
)

// GuestDirectory resolves guest contact details.
type GuestDirectory interface {
	GetGuest(guestID string) (*models.Guest, error)
}

// Notifier turns booking lifecycle events into guest emails. It is fed
// by the kafka consumer; delivery failures are logged, never retried.
type Notifier struct {
	Sender Sender
	Guests GuestDirectory
	Logger *logger.Logger
}

func NewNotifier(sender Sender, guests GuestDirectory, log *logger.Logger) *Notifier {
	return &Notifier{Sender: sender, Guests: guests, Logger: log}
}

// HandleBookingEvent is the consumer callback for booking topics.
func (n *Notifier) HandleBookingEvent(event models.BookingEvent) {
	subject, body := n.compose(event)
	if subject == "" {
		return
	}

	guest, err := n.Guests.GetGuest(event.GuestID)
	if err != nil {
		n.Logger.Warn("NOTIFY", fmt.Sprintf("no guest record for %s, skipping notification: %v", event.GuestID, err))
		return
	}

	if err := n.Sender.Send(guest.Email, subject, body); err != nil {
		n.Logger.Error("NOTIFY", fmt.Sprintf("failed to notify %s about %s: %v", guest.Email, event.Type, err))
		return
	}
	n.Logger.Info("NOTIFY", fmt.Sprintf("sent %s notification for booking %s", event.Type, event.BookingID))
}

func (n *Notifier) compose(event models.BookingEvent) (string, string) {
	stay := ""
	if event.Booking != nil {
		stay = fmt.Sprintf("Room %s, %s to %s.",
			event.Booking.RoomID,
			utils.FormatDate(event.Booking.CheckIn),
			utils.FormatDate(event.Booking.CheckOut))
	}

	switch event.Type {
	case "booking.created":
		return "Your room is on hold",
			fmt.Sprintf("We are holding booking %s for you. %s Complete payment to confirm it.", event.BookingID, stay)
	case "booking.confirmed":
		return "Booking confirmed",
			fmt.Sprintf("Booking %s is confirmed. %s Your voucher is attached to your booking record.", event.BookingID, stay)
	case "booking.cancelled":
		return "Booking cancelled",
			fmt.Sprintf("Booking %s has been cancelled. %s", event.BookingID, stay)
	case "booking.released":
		return "Your hold expired",
			fmt.Sprintf("The hold on booking %s expired before payment completed and the room was released. %s", event.BookingID, stay)
	}
	return "", ""
}
