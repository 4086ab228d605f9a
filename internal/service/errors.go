package service

import "errors"

// Centralized service layer errors. All errors returned by service
// methods are defined here so handler-side classification stays
// predictable.

// ===== Authentication =====
var (
	ErrMissingCredentials = errors.New("Insert your email and password")
	ErrInvalidCredentials = errors.New("Incorrect email or password")
	ErrNotLoggedIn        = errors.New("You are not logged in! Please log in to get access.")
	ErrUserGone           = errors.New("The user belonging to this token no longer exists.")
	ErrPasswordChanged    = errors.New("User recently changed password! Please log in again.")
	ErrNotPermitted       = errors.New("You do not have permission to perform this action")
)

// ===== Account management =====
var (
	ErrPasswordTooShort    = errors.New("Please insert a password of at least 8 characters")
	ErrPasswordConfirm     = errors.New("Please confirm password correctly")
	ErrEmailUnknown        = errors.New("There is no user with this email address")
	ErrResetTokenInvalid   = errors.New("Token is invalid or has expired")
	ErrPasswordRouteMisuse = errors.New("This route is not for password updates. Please use /update-password.")
)

// ErrTooManyRequests surfaces as a 429 when rate limiting kicks in
var ErrTooManyRequests = errors.New("Too many requests from this IP, please try again in an hour!")

// ===== Tours and bookings =====
var (
	ErrTourNotFound    = errors.New("There is no tour with that name")
	ErrBookingNotFound = errors.New("booking not found")
	ErrBadCoordinates  = errors.New("Please provide latlng in the format lat,lng")
	ErrBadUnit         = errors.New("distance must be in kilometer or miles")
	ErrBadDistance     = errors.New("Distance must be a positive number")
	ErrBadSignature    = errors.New("webhook signature verification failed")
)

// ===== Uploads =====
var (
	ErrUnsupportedImage = errors.New("File type unsupported")
)
