package postgres

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"stem-chat/internal/logger"
	"stem-chat/internal/repository/db"
)

// CreateUser creates a new user with hashed password
func (p *PostgresDB) CreateUser(username, email, password string) (*db.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	userID := uuid.New().String()
	var user db.User

	query := `
	INSERT INTO users (id, username, email, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
	`

	err = p.conn.QueryRow(query, userID, username, email, string(hashedPassword)).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if err.Error() == "pq: duplicate key value violates unique constraint \"users_username_key\"" {
			return nil, fmt.Errorf("username already exists")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	user.Username = username
	user.Email = email

	logger.Log.WithFields(logrus.Fields{"username": username, "user_id": user.ID}).Info("Created new user")

	return &user, nil
}

// GetUserByUsername retrieves a user by username
func (p *PostgresDB) GetUserByUsername(username string) (*db.User, error) {
	var user db.User
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`

	err := p.conn.QueryRow(query, username).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// VerifyPassword checks if the provided password matches the user's hashed password
func VerifyPassword(user *db.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	return err == nil
}

// SeedDemoUser creates the demo user if it doesn't exist
func SeedDemoUser(database db.Database) error {
	if _, err := database.GetUserByUsername("demo"); err == nil {
		logger.Log.Info("Demo user already exists, skipping seed")
		return nil
	}

	_, err := database.CreateUser("demo", "demo@example.com", "demo123")
	if err != nil && err.Error() != "username already exists" {
		return fmt.Errorf("error seeding demo user: %w", err)
	}

	logger.Log.Info("Demo user seeded successfully")
	return nil
}
