package services

import (
	"errors"
	"fmt"

	"reelchat/internal/models"
)

// Domain errors. Every kind is distinguishable with errors.Is so callers can
// show a specific message.
var (
	ErrInvalidParticipants   = models.ErrInvalidParticipants
	ErrAlreadyFriends        = errors.New("already friends")
	ErrNotFriends            = errors.New("not friends")
	ErrRequestAlreadyPending = errors.New("friend request already pending")
	ErrRequestNotFound       = errors.New("friend request not found")
	ErrNotRequestSender      = errors.New("caller did not send this friend request")
	ErrNotRequestRecipient   = errors.New("caller is not the recipient of this friend request")
	ErrRoomNotFound          = errors.New("room not found")
	ErrNotRoomParticipant    = errors.New("caller is not a participant of this room")
	ErrEmptyMessage          = errors.New("message text is empty")
	ErrInvalidReel           = errors.New("reel needs an id and a video url")

	// ErrTransactionFailed wraps store failures of a multi-record write.
	// The write is not retried.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrUserAlreadyExists  = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidProfile     = errors.New("display name is required")
	ErrInvalidEmail       = errors.New("invalid email address")
)

var domainErrors = []error{
	ErrInvalidParticipants,
	ErrAlreadyFriends,
	ErrNotFriends,
	ErrRequestAlreadyPending,
	ErrRequestNotFound,
	ErrNotRequestSender,
	ErrNotRequestRecipient,
	ErrRoomNotFound,
	ErrNotRoomParticipant,
}

// txError passes domain errors through and marks anything else coming out
// of a transaction as ErrTransactionFailed.
func txError(err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}
