package model

import "time"

// Tent represents a beach tent (vendor stand) as stored in the
// `tents` table.  A tent belongs to an owner and carries the
// configuration that drives billing: the minimum menu spend per
// seating kit above which rental charges are waived, and the
// running review aggregate.
//
// Fields:
//  ID               – primary key identifier.
//  OwnerID          – user who operates the tent.
//  Name             – display name shown to customers.
//  Description      – free-form description of the tent.
//  MinOrderWaiverCents – menu spend (per seating kit) that waives the
//                     rental fee; null disables the waiver entirely.
//  RatingCount      – number of reviews received.
//  RatingSum        – sum of all review ratings (1–5 each).
//  CreatedAt        – timestamp of creation.
type Tent struct {
    ID                  uint64    // tents.id
    OwnerID             uint64    // tents.owner_id
    Name                string    // tents.name
    Description         string    // tents.description
    MinOrderWaiverCents *int64    // tents.min_order_waiver_cents (nullable)
    RatingCount         uint32    // tents.rating_count
    RatingSum           uint64    // tents.rating_sum
    CreatedAt           time.Time // tents.created_at
}

// OperatingHour represents one weekday row of a tent's opening
// schedule in the `tent_hours` table.  Times are wall-clock
// "HH:MM" strings; the service compares them against the requested
// reservation time on the matching weekday.
//
// Fields:
//  TentID  – tent the schedule belongs to.
//  Weekday – 0 (Sunday) through 6 (Saturday).
//  IsOpen  – whether the tent operates on this weekday.
//  Open    – opening time "HH:MM" (inclusive).
//  Close   – closing time "HH:MM" (inclusive).
type OperatingHour struct {
    TentID  uint64 // tent_hours.tent_id
    Weekday int    // tent_hours.weekday
    IsOpen  bool   // tent_hours.is_open
    Open    string // tent_hours.open_time
    Close   string // tent_hours.close_time
}
