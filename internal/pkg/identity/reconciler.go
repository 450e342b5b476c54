package identity

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/omniagency/omniagency/app/models"
	"github.com/omniagency/omniagency/app/repository"
)

// Outcome classifies how an event was applied so the handler can pick the
// response status without inspecting errors.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	// OutcomeDuplicate: the row already reflects the event (redelivery).
	OutcomeDuplicate
	// OutcomeNotFound: update arrived before the create (ordering race);
	// reported so the sender redelivers later.
	OutcomeNotFound
	// OutcomeSkipped: event intentionally ignored (missing deletion flag,
	// unrecognized type).
	OutcomeSkipped
)

// Reconciler mirrors Clerk user lifecycle events into the local user table.
type Reconciler struct {
	users  repository.UserRepository
	agents repository.AgentRepository
}

// NewReconciler wires the reconciler's repositories.
func NewReconciler(users repository.UserRepository, agents repository.AgentRepository) *Reconciler {
	return &Reconciler{users: users, agents: agents}
}

// Apply dispatches a verified, parsed event.
func (r *Reconciler) Apply(evt *Event) (Outcome, error) {
	switch evt.Type {
	case EventUserCreated:
		return r.applyCreated(evt)
	case EventUserUpdated:
		return r.applyUpdated(evt)
	case EventUserDeleted:
		return r.applyDeleted(evt)
	default:
		log.Printf("clerk webhook: ignoring event type %s", evt.Type)
		return OutcomeSkipped, nil
	}
}

func (r *Reconciler) applyCreated(evt *Event) (Outcome, error) {
	clerkID := evt.ClerkID()
	email := evt.PrimaryEmail()
	if clerkID == "" || email == "" {
		return OutcomeSkipped, fmt.Errorf("user.created missing clerk id or primary email")
	}

	user := &models.User{
		ClerkID:   clerkID,
		Email:     email,
		Name:      evt.FullName(),
		AvatarURL: evt.Data.ImageURL,
		PlanID:    models.PlanFree,
	}
	if err := r.users.Create(user); err != nil {
		if repository.IsDuplicateKey(err) {
			// Redelivered create; the row exists, which is the desired state.
			log.Printf("clerk webhook: user %s already exists, treating create as success", clerkID)
			return OutcomeDuplicate, nil
		}
		return OutcomeApplied, fmt.Errorf("create user %s: %w", clerkID, err)
	}
	log.Printf("clerk webhook: created user %d for clerk id %s", user.ID, clerkID)
	return OutcomeApplied, nil
}

func (r *Reconciler) applyUpdated(evt *Event) (Outcome, error) {
	clerkID := evt.ClerkID()
	if clerkID == "" {
		return OutcomeSkipped, fmt.Errorf("user.updated missing clerk id")
	}

	user, err := r.users.GetByClerkID(clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Create may still be in flight; a 404 lets Clerk redeliver.
			log.Printf("clerk webhook: user %s not found for update", clerkID)
			return OutcomeNotFound, nil
		}
		return OutcomeApplied, fmt.Errorf("lookup user %s: %w", clerkID, err)
	}

	fields := map[string]interface{}{
		"name":       evt.FullName(),
		"avatar_url": evt.Data.ImageURL,
	}
	if email := evt.PrimaryEmail(); email != "" {
		fields["email"] = email
	}
	if err := r.users.UpdateFields(user.ID, fields); err != nil {
		return OutcomeApplied, fmt.Errorf("update user %s: %w", clerkID, err)
	}
	log.Printf("clerk webhook: updated user %d from clerk id %s", user.ID, clerkID)
	return OutcomeApplied, nil
}

func (r *Reconciler) applyDeleted(evt *Event) (Outcome, error) {
	clerkID := evt.ClerkID()
	if clerkID == "" {
		return OutcomeSkipped, fmt.Errorf("user.deleted missing clerk id")
	}
	if !evt.ConfirmedDeleted() {
		// Deletion intent without the confirmed flag could be a soft-delete
		// marker; do nothing.
		log.Printf("clerk webhook: user.deleted for %s without deleted flag, skipping", clerkID)
		return OutcomeSkipped, nil
	}

	user, err := r.users.GetByClerkID(clerkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("clerk webhook: user %s already gone, treating delete as success", clerkID)
			return OutcomeDuplicate, nil
		}
		return OutcomeApplied, fmt.Errorf("lookup user %s: %w", clerkID, err)
	}

	// Application-layer cascade: remove owned agents before the user row.
	// An active Stripe subscription is intentionally not cancelled here.
	if removed, err := r.agents.DeleteByUserID(user.ID); err != nil {
		return OutcomeApplied, fmt.Errorf("delete agents of user %d: %w", user.ID, err)
	} else if removed > 0 {
		log.Printf("clerk webhook: removed %d agents of user %d", removed, user.ID)
	}

	if _, err := r.users.DeleteByClerkID(clerkID); err != nil {
		return OutcomeApplied, fmt.Errorf("delete user %s: %w", clerkID, err)
	}
	log.Printf("clerk webhook: deleted user %d for clerk id %s", user.ID, clerkID)
	return OutcomeApplied, nil
}
