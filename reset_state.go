package auth

// ResetTokenStatus is the derived state of a password reset token. It is
// computed from timestamps, never stored.
type ResetTokenStatus string

const (
	// ResetTokenActive means the token can still be redeemed.
	ResetTokenActive ResetTokenStatus = "active"
	// ResetTokenUsed means the token was redeemed. Terminal.
	ResetTokenUsed ResetTokenStatus = "used"
	// ResetTokenInvalidated means a newer token superseded it. Terminal.
	ResetTokenInvalidated ResetTokenStatus = "invalidated"
	// ResetTokenExpired means its lifetime ran out. Terminal, derived from
	// time passing rather than from an explicit transition.
	ResetTokenExpired ResetTokenStatus = "expired"
)

// Terminal reports whether there is no transition out of the status.
func (s ResetTokenStatus) Terminal() bool {
	return s != ResetTokenActive
}

// ResetStatusError maps a non-active status to its redemption error.
// Active returns nil.
func ResetStatusError(status ResetTokenStatus) error {
	switch status {
	case ResetTokenActive:
		return nil
	case ResetTokenUsed:
		return ErrResetTokenUsed
	case ResetTokenInvalidated:
		return ErrResetTokenInvalidated
	case ResetTokenExpired:
		return ErrResetTokenExpired
	default:
		return ErrResetTokenNotFound
	}
}
