package request

// Field names as they appear in JSON and in the form definition.
const (
	FieldPhoneNumber     = "phoneNumber"
	FieldHospitalName    = "hospitalName"
	FieldHospitalAddress = "hospitalAddress"
	FieldReason          = "reason"
	FieldDateOfDonation  = "dateOfDonation"
)

// Input is what the requester types.  It lives for one form session.
type Input struct {
	PhoneNumber     string `json:"phoneNumber"`
	HospitalName    string `json:"hospitalName"`
	HospitalAddress string `json:"hospitalAddress"`
	Reason          string `json:"reason"`
	DateOfDonation  string `json:"dateOfDonation"`
}

// Payload is Input plus the target donor.  It is built once per valid
// submit and sent to the backend.
type Payload struct {
	Input
	DonorID string `json:"donorId"`
}

// BuildPayload merges donorID into in.  donorID always comes from the
// caller, never from form fields.
func BuildPayload(in Input, donorID string) Payload {
	return Payload{Input: in, DonorID: donorID}
}

// values returns in keyed by field name.
func (in Input) values() map[string]string {
	return map[string]string{
		FieldPhoneNumber:     in.PhoneNumber,
		FieldHospitalName:    in.HospitalName,
		FieldHospitalAddress: in.HospitalAddress,
		FieldReason:          in.Reason,
		FieldDateOfDonation:  in.DateOfDonation,
	}
}

// set assigns value to the named field.  It reports false for an unknown
// name.
func (in *Input) set(name, value string) bool {
	switch name {
	case FieldPhoneNumber:
		in.PhoneNumber = value
	case FieldHospitalName:
		in.HospitalName = value
	case FieldHospitalAddress:
		in.HospitalAddress = value
	case FieldReason:
		in.Reason = value
	case FieldDateOfDonation:
		in.DateOfDonation = value
	default:
		return false
	}
	return true
}
