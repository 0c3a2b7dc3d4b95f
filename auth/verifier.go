package auth

import (
	"context"

	"collab-hub/domain"
	"collab-hub/errors"
	"collab-hub/repositories"
)

// Verifier turns a handshake credential into a verified Participant.
// It rejects missing, invalid or expired tokens and deactivated accounts
// before any connection state exists. The resulting identity is immutable
// for the lifetime of the connection.
type Verifier struct {
	tokens *TokenManager
	users  repositories.IUserRepository
}

func NewVerifier(tokens *TokenManager, users repositories.IUserRepository) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

func (v *Verifier) Verify(_ context.Context, credential string) (domain.Participant, error) {
	if credential == "" {
		return domain.Participant{}, errors.ErrMissingCredential
	}

	claims, err := v.tokens.Validate(credential)
	if err != nil {
		return domain.Participant{}, errors.ErrInvalidToken
	}

	user, err := v.users.GetUserByEmail(claims.Email)
	if err != nil {
		return domain.Participant{}, errors.ErrInvalidToken
	}
	if !user.Active {
		return domain.Participant{}, errors.ErrInactiveAccount
	}

	// Display attributes come from the account record, not the token:
	// a renamed user shows up correctly even with an older token.
	return domain.Participant{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}
