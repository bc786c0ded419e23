package errors

// Stable error codes emitted by the transaction engine. Codes are part of the
// external contract: clients and the demo frontend key their messaging off
// these strings, so existing values must never change.
const (
	CodeInvalidTransaction            = "INVALID_TRANSACTION"
	CodeSignatureVerificationFailed   = "SIGNATURE_VERIFICATION_FAILED"
	CodeDelegatedConsumeRequiresV2    = "DELEGATED_CONSUME_REQUIRES_V2"
	CodeDelegationProofMissing        = "DELEGATION_PROOF_MISSING"
	CodeValidAtMissing                = "VALID_AT_MISSING"
	CodeNonceAccountMissingOrInvalid  = "NONCE_ACCOUNT_MISSING_OR_INVALID"
	CodeReferenceTimeFuture           = "REFERENCE_TIME_FUTURE"
	CodeReferenceTimeTooOld           = "REFERENCE_TIME_TOO_OLD"
	CodeDelegationExpiredOrNotYetValid = "DELEGATION_EXPIRED_OR_NOT_YET_VALID"
	CodeDelegationIssuerOwnerMismatch  = "DELEGATION_ISSUER_OWNER_MISMATCH"
	CodeDelegationAudienceSignerMismatch = "DELEGATION_AUDIENCE_SIGNER_MISMATCH"
	CodeDelegationScopeMismatch       = "DELEGATION_SCOPE_MISMATCH"
	CodeDelegationRevoked             = "DELEGATION_REVOKED"
	CodeCapabilityLimitExceeded       = "CAPABILITY_LIMIT_EXCEEDED"
	CodeDuplicateSettlementWindow     = "DUPLICATE_SETTLEMENT_WINDOW"
	CodeSettlementNotFound            = "SETTLEMENT_NOT_FOUND"
	CodeSettlementNotProposed         = "SETTLEMENT_NOT_PROPOSED"
	CodeSettlementNotFinalized        = "SETTLEMENT_NOT_FINALIZED"
	CodeClaimAmountExceedsPayable     = "CLAIM_AMOUNT_EXCEEDS_PAYABLE"
	CodeClaimNotPending               = "CLAIM_NOT_PENDING"
	CodeSettlementConservationViolation = "SETTLEMENT_CONSERVATION_VIOLATION"
	CodeDisputeAlreadyOpen            = "DISPUTE_ALREADY_OPEN"
	CodeDisputeNotFound               = "DISPUTE_NOT_FOUND"
	CodeDisputeNotOpen                = "DISPUTE_NOT_OPEN"
	CodeDisputeWindowClosed           = "DISPUTE_WINDOW_CLOSED"
	CodeInvalidPolicyParameters       = "INVALID_POLICY_PARAMETERS"
	CodePolicyVersionConflict         = "POLICY_VERSION_CONFLICT"
	CodePolicyNotFound                = "POLICY_NOT_FOUND"
	CodeRetroactivePolicyForbidden    = "RETROACTIVE_POLICY_FORBIDDEN"
	CodeInvalidEvidenceBundle         = "INVALID_EVIDENCE_BUNDLE"
	CodeReplayMismatch                = "REPLAY_MISMATCH"
	CodeUnsupportedSchemaVersion      = "UNSUPPORTED_SCHEMA_VERSION"
	CodeReplayProtocolMismatch        = "REPLAY_PROTOCOL_MISMATCH"
	CodeStorage                       = "STORAGE_FAILURE"
	CodeInternal                      = "INTERNAL"
)
