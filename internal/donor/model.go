// internal/donor/model.go
//
// Donor record and lookup status.
//
// Context
// -------
// Donor mirrors the backend's donor profile.  The portal only reads it:
// the request page shows the target donor, and the requester's own
// profile is checked for existence before a form is offered.
//
// Notes
// -----
//   - Field names follow the backend's JSON.
//   - Oxford commas, two spaces after periods.
package donor

import "fmt"

// Donor is one donor profile.
type Donor struct {
	ID               string `json:"id"`
	UserID           string `json:"userId"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	BloodType        string `json:"bloodType"`
	Location         string `json:"location"`
	Availability     bool   `json:"availability"`
	Phone            string `json:"phone,omitempty"`
	Age              int    `json:"age,omitempty"`
	LastDonationDate string `json:"lastDonationDate,omitempty"`
	Bio              string `json:"bio,omitempty"`
}

// Status is the outcome of a donor lookup.
type Status int

const (
	// Loading means the record is being fetched or has never been asked for.
	Loading Status = iota
	// Absent means the backend has no such donor.
	Absent
	// Present means the record is available.
	Present
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "loading"
	}
}

// MarshalText renders the status as its lowercase name in JSON.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText accepts the names MarshalText produces.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "loading":
		*s = Loading
	case "absent":
		*s = Absent
	case "present":
		*s = Present
	default:
		return fmt.Errorf("donor: unknown status %q", b)
	}
	return nil
}
