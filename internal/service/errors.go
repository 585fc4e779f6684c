package service

import "errors"

var (
	// ErrInsufficientFunds is returned when a wallet debit would leave a
	// negative balance. Recoverable: ride creation releases its claim.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrRequestExpired is returned when a claim targets a ride request
	// whose window has closed or that never existed.
	ErrRequestExpired = errors.New("ride request expired")

	// ErrLockedByOther is returned when another driver holds the claim.
	ErrLockedByOther = errors.New("ride request locked by another driver")

	// ErrAlreadyAssigned is returned when the request already produced a
	// ride.
	ErrAlreadyAssigned = errors.New("ride request already assigned")

	// ErrActiveRequest is returned when the rider already has an open
	// ride request.
	ErrActiveRequest = errors.New("ride request already in progress")

	// ErrDuplicateRequest is returned when the unique ride key collides
	// with an existing request.
	ErrDuplicateRequest = errors.New("ride request already exists")

	// ErrOutOfRange is returned when the driver is too far from the
	// pickup or destination for the requested transition.
	ErrOutOfRange = errors.New("driver location out of range")

	// ErrInvalidTransition is returned when a status update does not
	// follow the ride lifecycle graph.
	ErrInvalidTransition = errors.New("invalid ride status transition")

	// ErrInvalidOtp is returned when the ride-start OTP does not match.
	ErrInvalidOtp = errors.New("invalid otp")

	// ErrRideAlreadyStarted is returned when verifying an OTP for a ride
	// that is already ongoing.
	ErrRideAlreadyStarted = errors.New("ride already started")

	// ErrRideNotCancellable is returned when cancelling a ride that is
	// already completed or cancelled.
	ErrRideNotCancellable = errors.New("ride cannot be cancelled in current state")

	// ErrNotRideOwner is returned when the caller is not a participant of
	// the ride they are acting on.
	ErrNotRideOwner = errors.New("not authorized for this ride")

	// ErrAlreadyRated is returned when a ride direction is rated twice.
	ErrAlreadyRated = errors.New("ride already rated")

	// ErrInvalidSignature is returned when a payment signature check
	// fails. No side effects are applied.
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrFareNotFound is returned when no fare config exists for the
	// vehicle type, not even in the Default district.
	ErrFareNotFound = errors.New("fare details not found for vehicle type")

	// ErrFareExists is returned when creating a fare row that already
	// exists for the vehicle type and district.
	ErrFareExists = errors.New("fare already exists for vehicle type and district")

	// ErrLowBalance is returned when a driver with an empty wallet tries
	// to go online.
	ErrLowBalance = errors.New("wallet balance too low to go online")

	// ErrActiveRide is returned when a driver changes status during an
	// active ride.
	ErrActiveRide = errors.New("cannot change status during an active ride")

	// ErrRechargeCooldown is returned when a recharge order follows the
	// previous one too quickly.
	ErrRechargeCooldown = errors.New("recharge already in progress, try again shortly")

	// ErrBelowMinimumRecharge is returned when the first recharge is
	// below the vehicle-type minimum.
	ErrBelowMinimumRecharge = errors.New("first recharge below minimum amount")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidRating is returned when a rating is outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidDriverID is returned when the driver id is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidUserID is returned when the user id is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidRideID is returned when the ride id is empty.
	ErrInvalidRideID = errors.New("invalid ride id")

	// ErrInvalidRideKey is returned when the unique ride key is empty.
	ErrInvalidRideKey = errors.New("invalid ride key")
)
