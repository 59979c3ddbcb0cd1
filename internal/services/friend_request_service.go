package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"reelchat/internal/imtypes"
	"reelchat/internal/models"
	"reelchat/internal/storage"
)

// SendOutcome says what a send did to the pair.
type SendOutcome string

const (
	// SendOutcomeCreated: a new pending request from → to was stored.
	SendOutcomeCreated SendOutcome = "created"
	// SendOutcomeAutoAccepted: to had already asked from, so the send
	// accepted that reverse request instead of creating a second one.
	SendOutcomeAutoAccepted SendOutcome = "auto_accepted"
)

// SendResult is returned by SendFriendRequest. For an auto-accept, Request
// is the reverse request that was consumed and Room is the pair's room.
type SendResult struct {
	Outcome SendOutcome           `json:"outcome"`
	Request *models.FriendRequest `json:"request"`
	Room    *models.Room          `json:"room,omitempty"`
}

// AcceptResult is the outcome of accepting a request.
type AcceptResult struct {
	Request     *models.FriendRequest `json:"request"`
	Room        *models.Room          `json:"room"`
	RoomCreated bool                  `json:"roomCreated"`
}

// FriendRequestService is the friend request ledger. Every transition runs in
// one transaction holding the pair lock, so the state of a pair moves through
// None, PendingAtoB, PendingBtoA and Friends without interleaving.
type FriendRequestService interface {
	SendFriendRequest(ctx context.Context, from, to models.UserSnapshot) (*SendResult, error)
	// AcceptFriendRequest turns the request into a friendship: both edges are
	// written, the request is deleted and the room is get-or-created, all in
	// one commit. to must be the request's recipient.
	AcceptFriendRequest(ctx context.Context, requestID string, from, to models.UserSnapshot) (*AcceptResult, error)
	// RejectFriendRequest deletes the request without other effects. A
	// request that no longer exists yields ErrRequestNotFound.
	RejectFriendRequest(ctx context.Context, requestID, recipientID string) error
	// CancelFriendRequest deletes a request the caller sent.
	CancelFriendRequest(ctx context.Context, requestID, senderID string) error
	GetRequest(ctx context.Context, requestID string) (*models.FriendRequest, error)
	ListIncoming(ctx context.Context, userID string) ([]models.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequest, error)
	PairStatus(ctx context.Context, userID, otherID string) (models.PairState, error)
}

type friendRequestService struct {
	db        *gorm.DB
	requests  storage.FriendRequestRepository
	friends   storage.FriendshipRepository
	publisher EventPublisher
}

// NewFriendRequestService creates a new FriendRequestService instance.
// Transactions build their own repositories on the transaction handle.
func NewFriendRequestService(db *gorm.DB, publisher EventPublisher) FriendRequestService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &friendRequestService{
		db:        db,
		requests:  storage.NewGormFriendRequestRepository(db),
		friends:   storage.NewGormFriendshipRepository(db),
		publisher: publisher,
	}
}

func (s *friendRequestService) SendFriendRequest(ctx context.Context, from, to models.UserSnapshot) (*SendResult, error) {
	pairID, err := models.DirectRoomID(from.ID, to.ID)
	if err != nil {
		return nil, err
	}

	var (
		result *SendResult
		events eventBatch
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := storage.LockPair(ctx, tx, from.ID, to.ID); err != nil {
			return err
		}
		txRequests := storage.NewGormFriendRequestRepository(tx)

		areFriends, err := storage.NewGormFriendshipRepository(tx).AreFriends(ctx, from.ID, to.ID)
		if err != nil {
			return err
		}
		if areFriends {
			return ErrAlreadyFriends
		}

		existing, err := txRequests.FindDirected(ctx, from.ID, to.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrRequestAlreadyPending
		}

		reverse, err := txRequests.FindDirected(ctx, to.ID, from.ID)
		if err != nil {
			return err
		}
		if reverse != nil {
			// Crossed request: from answers to's pending request.
			accepted, err := acceptWithinTx(ctx, tx, reverse, to, from)
			if err != nil {
				return err
			}
			result = &SendResult{Outcome: SendOutcomeAutoAccepted, Request: accepted.Request, Room: accepted.Room}
			addAcceptEvents(&events, pairID, from.ID, accepted)
			return nil
		}

		request := models.NewFriendRequest(from, to)
		created, err := txRequests.Create(ctx, request)
		if err != nil {
			return err
		}
		if !created {
			return ErrRequestAlreadyPending
		}
		result = &SendResult{Outcome: SendOutcomeCreated, Request: request}
		events.add(imtypes.FriendRequestCreated, pairID, from.ID, []string{to.ID, from.ID}, request, withRequest(request.ID))
		return nil
	})
	if txErr != nil {
		return nil, txError(txErr)
	}

	slog.Info("friend request sent", "from", from.ID, "to", to.ID, "outcome", result.Outcome)
	events.publish(ctx, s.publisher)
	return result, nil
}

func (s *friendRequestService) AcceptFriendRequest(ctx context.Context, requestID string, from, to models.UserSnapshot) (*AcceptResult, error) {
	pairID, err := models.DirectRoomID(from.ID, to.ID)
	if err != nil {
		return nil, err
	}

	var (
		result *AcceptResult
		events eventBatch
	)
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.ToID != to.ID {
			return ErrNotRequestRecipient
		}
		if request.FromID != from.ID {
			return ErrRequestNotFound
		}

		result, err = acceptWithinTx(ctx, tx, request, from, to)
		if err != nil {
			return err
		}
		addAcceptEvents(&events, pairID, to.ID, result)
		return nil
	})
	if txErr != nil {
		return nil, txError(txErr)
	}

	slog.Info("friend request accepted", "request", requestID, "room", result.Room.ID, "roomCreated", result.RoomCreated)
	events.publish(ctx, s.publisher)
	return result, nil
}

// acceptWithinTx applies the accept transition inside tx: delete the
// request, write both friendship edges, get-or-create the room. from is the
// request's sender and to its recipient.
func acceptWithinTx(ctx context.Context, tx *gorm.DB, request *models.FriendRequest, from, to models.UserSnapshot) (*AcceptResult, error) {
	deleted, err := storage.NewGormFriendRequestRepository(tx).Delete(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, ErrRequestNotFound
	}

	if err := storage.NewGormFriendshipRepository(tx).AddEdge(ctx, from, to); err != nil {
		return nil, err
	}

	room, err := models.NewDirectRoom(from, to)
	if err != nil {
		return nil, err
	}
	stored, created, err := storage.NewGormRoomRepository(tx).GetOrCreate(ctx, room)
	if err != nil {
		return nil, err
	}
	return &AcceptResult{Request: request, Room: stored, RoomCreated: created}, nil
}

func addAcceptEvents(events *eventBatch, pairID, actorID string, accepted *AcceptResult) {
	recipients := []string{accepted.Request.FromID, accepted.Request.ToID}
	events.add(imtypes.FriendRequestAccepted, pairID, actorID, recipients, accepted, withRequest(accepted.Request.ID))
	if accepted.RoomCreated {
		events.add(imtypes.RoomCreated, pairID, actorID, recipients, accepted.Room, withRoom(accepted.Room.ID))
	}
}

// lockRequest loads the request, takes its pair lock and reloads it, so the
// returned record is the one a concurrent transition did not consume.
func lockRequest(ctx context.Context, tx *gorm.DB, requestID string) (*models.FriendRequest, error) {
	txRequests := storage.NewGormFriendRequestRepository(tx)

	request, err := txRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	if err := storage.LockPair(ctx, tx, request.FromID, request.ToID); err != nil {
		return nil, err
	}

	request, err = txRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

func (s *friendRequestService) RejectFriendRequest(ctx context.Context, requestID, recipientID string) error {
	var events eventBatch
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.ToID != recipientID {
			return ErrNotRequestRecipient
		}
		if _, err := storage.NewGormFriendRequestRepository(tx).Delete(ctx, request.ID); err != nil {
			return err
		}
		pairID, _ := models.DirectRoomID(request.FromID, request.ToID)
		events.add(imtypes.FriendRequestRejected, pairID, recipientID,
			[]string{request.FromID, request.ToID}, request, withRequest(request.ID))
		return nil
	})
	if txErr != nil {
		return txError(txErr)
	}

	slog.Info("friend request rejected", "request", requestID)
	events.publish(ctx, s.publisher)
	return nil
}

func (s *friendRequestService) CancelFriendRequest(ctx context.Context, requestID, senderID string) error {
	var events eventBatch
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := lockRequest(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if request.FromID != senderID {
			return ErrNotRequestSender
		}
		if _, err := storage.NewGormFriendRequestRepository(tx).Delete(ctx, request.ID); err != nil {
			return err
		}
		pairID, _ := models.DirectRoomID(request.FromID, request.ToID)
		events.add(imtypes.FriendRequestCancelled, pairID, senderID,
			[]string{request.ToID, request.FromID}, request, withRequest(request.ID))
		return nil
	})
	if txErr != nil {
		return txError(txErr)
	}

	slog.Info("friend request cancelled", "request", requestID)
	events.publish(ctx, s.publisher)
	return nil
}

func (s *friendRequestService) GetRequest(ctx context.Context, requestID string) (*models.FriendRequest, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

func (s *friendRequestService) ListIncoming(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	return s.requests.ListIncoming(ctx, userID)
}

func (s *friendRequestService) ListOutgoing(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	return s.requests.ListOutgoing(ctx, userID)
}

// PairStatus reports the pair's state as seen by userID.
func (s *friendRequestService) PairStatus(ctx context.Context, userID, otherID string) (models.PairState, error) {
	if _, _, err := models.CanonicalPair(userID, otherID); err != nil {
		return "", err
	}

	areFriends, err := s.friends.AreFriends(ctx, userID, otherID)
	if err != nil {
		return "", err
	}
	if areFriends {
		return models.PairStateFriends, nil
	}

	outgoing, err := s.requests.FindDirected(ctx, userID, otherID)
	if err != nil {
		return "", err
	}
	if outgoing != nil {
		return models.PairStatePendingAtoB, nil
	}

	incoming, err := s.requests.FindDirected(ctx, otherID, userID)
	if err != nil {
		return "", err
	}
	if incoming != nil {
		return models.PairStatePendingBtoA, nil
	}
	return models.PairStateNone, nil
}
