package authsdk

import "time"

// Authentication methods accepted by Login.
const (
	AuthMethodLocal = "local"
	AuthMethodLDAP  = "ldap"
	AuthMethodOAuth = "oauth"
)

// ============================================================================
// Envelope Types
// ============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Invalid email or password"`

	// Errors lists every validation failure (400 only)
	Errors []string `json:"errors,omitempty"`

	// RetryAfter is the wait in seconds before retrying (423 and 429)
	RetryAfter int `json:"retryAfter,omitempty" example:"60"`

	// LockedUntil is when a locked account opens again (423 only)
	LockedUntil *time.Time `json:"lockedUntil,omitempty"`
}

// MessageResponse acknowledges an operation without returning data.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Logged out successfully"`
}

// ============================================================================
// Authentication Types
// ============================================================================

// SessionUser is the user summary stored in the session.
type SessionUser struct {
	ID         string `json:"id" example:"01HZY3N4Q6R8S0T2V4W6X8Y0Z1"`
	Email      string `json:"email" example:"alice@example.com"`
	Name       string `json:"name" example:"Alice Smith"`
	Role       string `json:"role" example:"user"`
	AuthMethod string `json:"authMethod" example:"local"`
	Avatar     string `json:"avatar,omitempty"`
}

// LoginRequest logs in with local or directory credentials. Local logins use
// Email; directory logins (AuthMethod "ldap") use Username, which may be a
// uid or an email address.
type LoginRequest struct {
	Email      string `json:"email,omitempty" example:"alice@example.com"`
	Username   string `json:"username,omitempty" example:"john.doe"`
	Password   string `json:"password" example:"S3cret!pass"`
	AuthMethod string `json:"authMethod,omitempty" example:"local"`
}

// RegisterRequest creates a local account.
type RegisterRequest struct {
	Name            string `json:"name" example:"Alice Smith"`
	Email           string `json:"email" example:"alice@example.com"`
	Password        string `json:"password" example:"S3cret!pass"`
	ConfirmPassword string `json:"confirmPassword" example:"S3cret!pass"`
}

// OAuthLoginRequest carries a signed assertion from the OAuth broker.
type OAuthLoginRequest struct {
	Assertion string `json:"assertion"`
}

// AuthResponse is returned by login, registration and OAuth login.
type AuthResponse struct {
	Success   bool        `json:"success" example:"true"`
	Message   string      `json:"message" example:"Login successful"`
	User      SessionUser `json:"user"`
	CSRFToken string      `json:"csrfToken"`
}

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Success    bool         `json:"success" example:"true"`
	IsLoggedIn bool         `json:"isLoggedIn" example:"true"`
	User       *SessionUser `json:"user"`
}

// ============================================================================
// User Types
// ============================================================================

// User is the full account view returned to its owner and to admins.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	AuthMethod    string     `json:"authMethod"`
	Provider      string     `json:"provider,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	IsActive      bool       `json:"isActive"`
	IsLocked      bool       `json:"isLocked"`
	LoginAttempts int        `json:"loginAttempts"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// ProfileUpdateRequest changes the caller's name and email.
type ProfileUpdateRequest struct {
	Name  string `json:"name" example:"Alice Smith"`
	Email string `json:"email" example:"alice@example.com"`
}

// PasswordChangeRequest changes the caller's password (local accounts only).
type PasswordChangeRequest struct {
	CurrentPassword    string `json:"currentPassword"`
	NewPassword        string `json:"newPassword"`
	ConfirmNewPassword string `json:"confirmNewPassword"`
}

// ============================================================================
// Admin Types
// ============================================================================

// ListUsersParams filters GET /api/admin/users. Zero values use the server
// defaults (page 1, limit 10).
type ListUsersParams struct {
	Page   int
	Limit  int
	Search string
	Role   string
}

// Pagination describes one page of a list.
type Pagination struct {
	Page       int  `json:"page" example:"1"`
	Limit      int  `json:"limit" example:"10"`
	Total      int  `json:"total" example:"42"`
	TotalPages int  `json:"totalPages" example:"5"`
	HasNext    bool `json:"hasNext" example:"true"`
	HasPrev    bool `json:"hasPrev" example:"false"`
}

// UserListResponse is one page of users, newest first.
type UserListResponse struct {
	Success    bool       `json:"success" example:"true"`
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// AdminCreateUserRequest creates an account. Password is required only for
// local accounts. Username is the directory uid of an ldap account and
// defaults to the local part of Email.
type AdminCreateUserRequest struct {
	Name       string `json:"name" example:"Bob Jones"`
	Email      string `json:"email" example:"bob@example.com"`
	Role       string `json:"role" example:"user"`
	AuthMethod string `json:"authMethod,omitempty" example:"local"`
	Password   string `json:"password,omitempty"`
	Username   string `json:"username,omitempty" example:"bob.jones"`
}

// AdminUpdateUserRequest changes the given fields; nil fields are kept.
type AdminUpdateUserRequest struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Role          *string `json:"role,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
	EmailVerified *bool   `json:"emailVerified,omitempty"`
}

// AuthMethodCounts splits accounts by authentication method.
type AuthMethodCounts struct {
	Local int `json:"local"`
	LDAP  int `json:"ldap"`
	OAuth int `json:"oauth"`
}

// Stats summarizes the account table.
type Stats struct {
	TotalUsers      int              `json:"totalUsers"`
	ActiveUsers     int              `json:"activeUsers"`
	InactiveUsers   int              `json:"inactiveUsers"`
	AdminUsers      int              `json:"adminUsers"`
	RegularUsers    int              `json:"regularUsers"`
	LockedUsers     int              `json:"lockedUsers"`
	VerifiedUsers   int              `json:"verifiedUsers"`
	UnverifiedUsers int              `json:"unverifiedUsers"`
	RecentUsers     int              `json:"recentUsers"`
	AuthMethods     AuthMethodCounts `json:"authMethods"`
}

type StatsResponse struct {
	Success    bool  `json:"success" example:"true"`
	Statistics Stats `json:"statistics"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for /livez and /readyz
// (readyz includes the Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status" example:"ok"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the account store status
	Database string `json:"database"`

	// RateLimiter indicates the rate limit backend status
	RateLimiter string `json:"rateLimiter"`
}

// APIHealthResponse is the public GET /api/health body.
type APIHealthResponse struct {
	Status    string    `json:"status" example:"healthy"`
	Database  string    `json:"database" example:"healthy"`
	Directory string    `json:"directory" example:"configured"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

// ============================================================================
// Development Types
// ============================================================================

// RateLimitStatus is the caller's login budget (development builds only).
type RateLimitStatus struct {
	Success       bool      `json:"success"`
	Action        string    `json:"action"`
	Allowed       bool      `json:"allowed"`
	Limit         int       `json:"limit"`
	Remaining     int       `json:"remaining"`
	TotalAttempts int       `json:"totalAttempts"`
	ResetTime     time.Time `json:"resetTime"`
}

// DirectoryUser is a mock directory record (development builds only).
type DirectoryUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type DirectoryUsersResponse struct {
	Success bool            `json:"success"`
	Users   []DirectoryUser `json:"ldapUsers"`
}
