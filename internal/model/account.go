package model

// AccountBalance tracks a customer's unpaid penalty balance in the
// `account_balances` table.  Cancellation and no-show fees credit
// it; creating the next reservation consumes it, folding the amount
// into that reservation's total.
//
// Fields:
//  UserID           – customer the balance belongs to (primary key).
//  OutstandingCents – owed penalties in cents, always ≥ 0.
type AccountBalance struct {
    UserID           uint64 // account_balances.user_id
    OutstandingCents int64  // account_balances.outstanding_cents
}
