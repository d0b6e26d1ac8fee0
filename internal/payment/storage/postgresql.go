package storage

import (
	"database/sql"
	"fmt"
	"resort-booking/internal/config"
	"resort-booking/internal/logger"
	"resort-booking/internal/models"

	_ "github.com/lib/pq"
)

type PostgreSQLStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewPostgreSQLStoreWithDB creates a payment store on an existing database
// connection (the gateway shares one pool between booking and payment).
func NewPostgreSQLStoreWithDB(db *sql.DB, log *logger.Logger) (*PostgreSQLStore, error) {
	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize payment tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize payment tables: %w", err)
	}

	log.Info("DATABASE", "Payment storage initialized on existing connection")
	return store, nil
}

func NewPostgreSQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*PostgreSQLStore, error) {
	log.LogDatabase("CONNECT", "postgresql", fmt.Sprintf("Connecting to PostgreSQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Error("DATABASE", "Failed to open PostgreSQL connection: "+err.Error())
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := db.Ping(); err != nil {
		log.Error("DATABASE", "Failed to ping PostgreSQL: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{
		db:  db,
		log: log,
	}

	if err := store.initTables(); err != nil {
		log.Error("DATABASE", "Failed to initialize tables: "+err.Error())
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "postgresql", "PostgreSQL connection established and tables initialized")
	return store, nil
}

func (s *PostgreSQLStore) initTables() error {
	s.log.LogDatabase("MIGRATE", "postgresql", "Creating payments table if not exists")

	paymentsQuery := `
    CREATE TABLE IF NOT EXISTS payments (
        payment_id VARCHAR(36) PRIMARY KEY,
        booking_id VARCHAR(36) NOT NULL,
        amount DECIMAL(10,2) NOT NULL,
        method VARCHAR(50),
        status VARCHAR(50) NOT NULL,
        verification VARCHAR(50) NOT NULL,
        url VARCHAR(500),
        transaction_id VARCHAR(100),
        created_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        updated_date TIMESTAMP
    );
    `

	if _, err := s.db.Exec(paymentsQuery); err != nil {
		return fmt.Errorf("failed to create payments table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id);",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);",
		"CREATE INDEX IF NOT EXISTS idx_payments_created_date ON payments(created_date);",
	}

	for _, indexQuery := range indexes {
		if _, err := s.db.Exec(indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	s.log.LogDatabase("SUCCESS", "postgresql", "Payment tables and indexes ready")
	return nil
}

// SavePayment saves a payment to the database
func (s *PostgreSQLStore) SavePayment(payment *models.Payment) error {
	s.log.LogDatabase("INSERT", "postgresql", fmt.Sprintf("Saving payment %s", payment.PaymentID))

	query := `
    INSERT INTO payments (
        payment_id, booking_id, amount, method, status, verification, url, transaction_id, created_date
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	_, err := s.db.Exec(query,
		payment.PaymentID, payment.BookingID, payment.Amount, payment.Method,
		payment.Status, payment.Verification, payment.URL, payment.TransactionID, payment.CreatedDate,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to save payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to save payment: %w", err)
	}

	return nil
}

// GetPayment retrieves a payment by ID
func (s *PostgreSQLStore) GetPayment(id string) (*models.Payment, error) {
	query := `
    SELECT payment_id, booking_id, amount, method, status, verification, url,
           COALESCE(transaction_id, ''), created_date, COALESCE(updated_date, created_date)
    FROM payments WHERE payment_id = $1
    `

	payment := &models.Payment{}
	err := s.db.QueryRow(query, id).Scan(
		&payment.PaymentID, &payment.BookingID, &payment.Amount, &payment.Method,
		&payment.Status, &payment.Verification, &payment.URL,
		&payment.TransactionID, &payment.CreatedDate, &payment.UpdatedDate,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("payment not found")
		}
		s.log.Error("DATABASE", fmt.Sprintf("Failed to get payment %s: %s", id, err.Error()))
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return payment, nil
}

// UpdatePayment updates a payment's status fields. The amount column is
// deliberately left out: amounts are immutable once recorded.
func (s *PostgreSQLStore) UpdatePayment(payment *models.Payment) error {
	s.log.LogDatabase("UPDATE", "postgresql", fmt.Sprintf("Updating payment %s", payment.PaymentID))

	query := `
    UPDATE payments SET
        status = $1, verification = $2, url = $3, transaction_id = $4, updated_date = CURRENT_TIMESTAMP
    WHERE payment_id = $5
    `

	_, err := s.db.Exec(query,
		payment.Status, payment.Verification, payment.URL, payment.TransactionID, payment.PaymentID,
	)

	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to update payment %s: %s", payment.PaymentID, err.Error()))
		return fmt.Errorf("failed to update payment: %w", err)
	}

	return nil
}

// GetPaymentsByBooking retrieves all payment attempts against a booking
func (s *PostgreSQLStore) GetPaymentsByBooking(bookingID string) ([]*models.Payment, error) {
	query := `
    SELECT payment_id, booking_id, amount, method, status, verification, url,
           COALESCE(transaction_id, ''), created_date, COALESCE(updated_date, created_date)
    FROM payments WHERE booking_id = $1 ORDER BY created_date
    `

	rows, err := s.db.Query(query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment := &models.Payment{}
		if err := rows.Scan(
			&payment.PaymentID, &payment.BookingID, &payment.Amount, &payment.Method,
			&payment.Status, &payment.Verification, &payment.URL,
			&payment.TransactionID, &payment.CreatedDate, &payment.UpdatedDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// VerifiedTotal sums the verified, paid amounts against a booking.
func (s *PostgreSQLStore) VerifiedTotal(bookingID string) (float64, error) {
	query := `
    SELECT COALESCE(SUM(amount), 0) FROM payments
    WHERE booking_id = $1 AND status = $2 AND verification = $3
    `

	var total float64
	err := s.db.QueryRow(query, bookingID, models.StatusPaid, models.VerificationVerified).Scan(&total)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to sum payments for booking %s: %s", bookingID, err.Error()))
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}
