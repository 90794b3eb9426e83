package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rental/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role distinguishes landlords from tenants
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleTenant || r == RoleLandlord
}

// bcrypt cost for password hashes
var bcryptCost = 12

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is an account of the rental system
type User struct {
	shared.BaseAggregateRoot
	Username     string
	PasswordHash string
	Phone        string
	IDNumber     string
	Role         Role
	// LandlordCode identifies a landlord. Tenants carry the code of their landlord.
	LandlordCode string
	LastLoginAt  *time.Time
}

// NewLandlord creates a landlord account with a fresh landlord code
func NewLandlord(username, password string) (*User, error) {
	return newUser(username, password, RoleLandlord, GenerateLandlordCode())
}

// NewTenant creates a tenant account. landlordCode may be empty.
func NewTenant(username, password, landlordCode string) (*User, error) {
	return newUser(username, password, RoleTenant, strings.ToUpper(strings.TrimSpace(landlordCode)))
}

func newUser(username, password string, role Role, landlordCode string) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	user := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          NormalizeUsername(username),
		PasswordHash:      hash,
		Role:              role,
		LandlordCode:      landlordCode,
	}
	user.AddDomainEvent(NewUserRegisteredEvent(user))

	return user, nil
}

// GenerateLandlordCode returns the first 8 characters of a random UUID, upper-cased
func GenerateLandlordCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

// NormalizeUsername trims and lower-cases a username
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// SetContact updates phone and national id number
func (u *User) SetContact(phone, idNumber string) error {
	phone = strings.TrimSpace(phone)
	idNumber = strings.TrimSpace(idNumber)
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	if len(idNumber) > 30 {
		return shared.NewDomainError("INVALID_ID_NUMBER", "ID number cannot exceed 30 characters")
	}
	u.Phone = phone
	u.IDNumber = idNumber
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ChangePassword replaces the password after verifying the current one
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError("INVALID_CREDENTIALS", "Current password is incorrect")
	}
	if err := validatePassword(next); err != nil {
		return err
	}
	hash, err := hashPassword(next)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// RecordLogin stores the login time
func (u *User) RecordLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// IsLandlord reports whether the user is a landlord
func (u *User) IsLandlord() bool {
	return u.Role == RoleLandlord
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 50 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 6 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 6 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
