package domain

// LocationStatus is the booking state of a display location.
type LocationStatus string

const (
	LocationActive   LocationStatus = "active"
	LocationInactive LocationStatus = "inactive"
	LocationBooked   LocationStatus = "booked"
)

// Location is a physical or virtual display slot owned by a provider. The ID
// shares a namespace with the external metrics/device identifier and is
// supplied by the caller rather than generated here.
type Location struct {
	ID      string
	Name    string
	Image   string
	BaseFee int64
	Views   uint64
	Status  LocationStatus
}

// Provider is an entity offering display locations and accruing earnings from
// campaigns. TotalEarnings is the current withdrawable balance in integer
// token units; it only grows through payments and shrinks through authorized
// withdrawals. Earnings fields are visible to the owner only, the rest of the
// record is open for marketplace discovery.
type Provider struct {
	ID            string
	Name          string
	Owner         string
	Locations     []Location
	TotalEarnings int64
}
