package sse

import (
	"context"
	"sync"

	"resort-booking/internal/models"
)

// BookingEventEmitter manages SSE connections and event broadcasting for
// booking lifecycle events
type BookingEventEmitter struct {
	// Room channel clients map - key: roomID, value: slice of client channels
	roomClients     map[string][]chan models.BookingEvent
	roomClientMutex sync.RWMutex

	// Guest channel clients map - key: guestID, value: slice of client channels
	guestClients     map[string][]chan models.BookingEvent
	guestClientMutex sync.RWMutex
}

// NewBookingEventEmitter creates a new SSE event emitter for booking events
func NewBookingEventEmitter() *BookingEventEmitter {
	return &BookingEventEmitter{
		roomClients:  make(map[string][]chan models.BookingEvent),
		guestClients: make(map[string][]chan models.BookingEvent),
	}
}

// SubscribeToRoom adds a client to a room's booking events
func (e *BookingEventEmitter) SubscribeToRoom(ctx context.Context, roomID string) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)

	e.roomClientMutex.Lock()
	if e.roomClients[roomID] == nil {
		e.roomClients[roomID] = []chan models.BookingEvent{}
	}
	e.roomClients[roomID] = append(e.roomClients[roomID], clientChan)
	e.roomClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeRoomClient(roomID, clientChan)
	}()

	return clientChan
}

// SubscribeToGuest adds a client to a guest's booking events
func (e *BookingEventEmitter) SubscribeToGuest(ctx context.Context, guestID string) chan models.BookingEvent {
	clientChan := make(chan models.BookingEvent, 10)

	e.guestClientMutex.Lock()
	if e.guestClients[guestID] == nil {
		e.guestClients[guestID] = []chan models.BookingEvent{}
	}
	e.guestClients[guestID] = append(e.guestClients[guestID], clientChan)
	e.guestClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeGuestClient(guestID, clientChan)
	}()

	return clientChan
}

// EmitBookingEvent broadcasts a booking event to all subscribed clients
func (e *BookingEventEmitter) EmitBookingEvent(event models.BookingEvent) {
	e.roomClientMutex.RLock()
	clients := e.roomClients[event.RoomID]
	e.roomClientMutex.RUnlock()

	for _, clientChan := range clients {
		// Non-blocking send to avoid slowing down emitter if client is slow
		select {
		case clientChan <- event:
			// Successfully sent
		default:
			// Channel buffer full, skip this client for now
		}
	}

	e.guestClientMutex.RLock()
	guestClients := e.guestClients[event.GuestID]
	e.guestClientMutex.RUnlock()

	for _, clientChan := range guestClients {
		// Non-blocking send to avoid slowing down emitter if client is slow
		select {
		case clientChan <- event:
			// Successfully sent
		default:
			// Channel buffer full, skip this client for now
		}
	}
}

// Helper methods to remove clients when they disconnect
func (e *BookingEventEmitter) removeRoomClient(roomID string, clientChan chan models.BookingEvent) {
	e.roomClientMutex.Lock()
	defer e.roomClientMutex.Unlock()

	clients := e.roomClients[roomID]
	for i, ch := range clients {
		if ch == clientChan {
			e.roomClients[roomID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	// Clean up map entry if no more clients
	if len(e.roomClients[roomID]) == 0 {
		delete(e.roomClients, roomID)
	}
}

func (e *BookingEventEmitter) removeGuestClient(guestID string, clientChan chan models.BookingEvent) {
	e.guestClientMutex.Lock()
	defer e.guestClientMutex.Unlock()

	clients := e.guestClients[guestID]
	for i, ch := range clients {
		if ch == clientChan {
			e.guestClients[guestID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	// Clean up map entry if no more clients
	if len(e.guestClients[guestID]) == 0 {
		delete(e.guestClients, guestID)
	}
}

// GetRoomClientCount returns the number of clients currently subscribed to a room
func (e *BookingEventEmitter) GetRoomClientCount(roomID string) int {
	e.roomClientMutex.RLock()
	defer e.roomClientMutex.RUnlock()
	return len(e.roomClients[roomID])
}

// GetGuestClientCount returns the number of clients currently subscribed to a guest
func (e *BookingEventEmitter) GetGuestClientCount(guestID string) int {
	e.guestClientMutex.RLock()
	defer e.guestClientMutex.RUnlock()
	return len(e.guestClients[guestID])
}
