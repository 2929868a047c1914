package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrContractNotFound indicates that no fractional song contract exists
	// for the given id or song id.
	ErrContractNotFound = errors.New("fractional song contract not found")

	// ErrOwnershipNotFound indicates that a user holds no shares in the song.
	ErrOwnershipNotFound = errors.New("share ownership not found")

	// ErrTransactionNotFound indicates that a share transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("share transaction not found")

	// ErrDistributionNotFound indicates that a revenue distribution with the given ID does not exist.
	ErrDistributionNotFound = errors.New("revenue distribution not found")

	// ErrPayoutNotFound indicates that a revenue payout record does not exist.
	ErrPayoutNotFound = errors.New("revenue payout not found")

	// ErrWebhookSecretNotFound indicates the outbound webhook secret has not been configured.
	ErrWebhookSecretNotFound = errors.New("webhook secret not configured")

	// ErrSettingNotFound indicates that a ledger setting key has no value.
	ErrSettingNotFound = errors.New("setting not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInsufficientShares indicates that a purchase or transfer asks for
	// more shares than the pool (or the seller) currently holds.
	ErrInsufficientShares = errors.New("insufficient shares available")

	// ErrInvalidPrice indicates a zero or negative share price.
	ErrInvalidPrice = errors.New("share price must be positive")

	// ErrInvalidPercentage indicates a percentage outside (0, 1].
	ErrInvalidPercentage = errors.New("percentage must be in (0, 1]")

	// ErrInvalidAmount indicates a negative monetary amount.
	ErrInvalidAmount = errors.New("amount cannot be negative")

	// ErrInvalidQuantity indicates a zero or negative share quantity.
	ErrInvalidQuantity = errors.New("share quantity must be positive")

	// ErrPriceExceeded indicates the current share price rose above the
	// buyer's maximum acceptable price between quote and execution.
	ErrPriceExceeded = errors.New("current price exceeds maximum price per share")

	// ErrDuplicateContract indicates a contract already exists for the song.
	ErrDuplicateContract = errors.New("contract already exists for song")

	// ErrDuplicateDistribution indicates revenue for this song and period has
	// already been distributed.
	ErrDuplicateDistribution = errors.New("revenue already distributed for period")

	// ErrNoShareholders indicates a distribution was requested while no fan
	// holds any shares.
	ErrNoShareholders = errors.New("no shareholders to distribute to")

	// ErrBusinessRuleViolation indicates a structural contract rule was broken
	// (reserved shares >= total shares, share cap exceeded, self-transfer).
	ErrBusinessRuleViolation = errors.New("business rule violation")

	// ErrContractInUse indicates a contract cannot be torn down while
	// ownership rows still reference it.
	ErrContractInUse = errors.New("contract has active shareholders")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	// Contract operation errors
	ErrFailedToRetrieveContracts = errors.New("failed to retrieve contracts")
	ErrFailedToRetrieveContract  = errors.New("failed to retrieve contract")

	// Ownership operation errors
	ErrFailedToRetrieveHoldings = errors.New("failed to retrieve holdings")
	ErrFailedToRetrieveEarnings = errors.New("failed to retrieve earnings")

	// Transaction operation errors
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")

	// Distribution operation errors
	ErrFailedToRetrieveDistributions = errors.New("failed to retrieve distributions")
	ErrFailedToRetrievePayouts       = errors.New("failed to retrieve payouts")

	// Price history operation errors
	ErrFailedToRetrievePriceHistory = errors.New("failed to retrieve price history")

	// System operation errors
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)

// Data integrity errors represent inconsistencies or corruption in the data.
var (
	// ErrDataInconsistency indicates that the ledger is in an inconsistent
	// state (e.g., ownership totals no longer reconcile with the share pool).
	ErrDataInconsistency = errors.New("data inconsistency detected")

	// ErrMissingRequiredField indicates that a required field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)
