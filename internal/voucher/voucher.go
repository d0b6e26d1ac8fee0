package voucher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"resort-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

// Payload is the encrypted content of a confirmation voucher. The front
// desk scans the QR code and decrypts it with the shared secret.
type Payload struct {
	BookingID string    `json:"booking_id"`
	GuestID   string    `json:"guest_id"`
	RoomID    string    `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	IssuedAt  time.Time `json:"issued_at"`
}

type Issuer struct {
	secret []byte
}

func NewIssuer(secret string) *Issuer {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Issuer{secret: hashed[:]}
}

// Generate renders an encrypted QR voucher for a confirmed booking.
func (i *Issuer) Generate(booking models.Booking) ([]byte, error) {
	data, err := json.Marshal(Payload{
		BookingID: booking.BookingID,
		GuestID:   booking.GuestID,
		RoomID:    booking.RoomID,
		CheckIn:   booking.CheckIn,
		CheckOut:  booking.CheckOut,
		IssuedAt:  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, i.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// Decode reverses the encryption for front-desk verification of a
// scanned voucher string.
func (i *Issuer) Decode(encoded string) (*Payload, error) {
	data, err := decryptAES(encoded, i.secret)
	if err != nil {
		return nil, err
	}
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
