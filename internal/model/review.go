package model

import "time"

// Review is a customer's rating of a completed reservation, stored
// in the `reviews` table.  One review per reservation; writing a
// review also updates the tent's rating aggregate inside the same
// transaction.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reviewed reservation (unique).
//  TentID        – tent the rating applies to.
//  UserID        – reviewing customer.
//  Rating        – 1 through 5.
//  Comment       – optional free-form text.
//  CreatedAt     – when the review was written.
type Review struct {
    ID            uint64    // reviews.id
    ReservationID uint64    // reviews.reservation_id
    TentID        uint64    // reviews.tent_id
    UserID        uint64    // reviews.user_id
    Rating        uint8     // reviews.rating
    Comment       string    // reviews.comment
    CreatedAt     time.Time // reviews.created_at
}
